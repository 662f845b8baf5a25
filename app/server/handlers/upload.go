package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"user-account-service/app/server/constants"
	"user-account-service/app/server/errs"
	"user-account-service/app/server/types"

	"github.com/labstack/echo/v4"
)

const photoTooLargeMessage = "images size too big"

var errPhotoTooLarge = fmt.Errorf("%w: %s", errs.ErrValidation, photoTooLargeMessage)

type photo struct {
	data        []byte
	contentType string
}

// readProfileInput 同时支持 JSON 与表单（含 multipart ）请求体
// 表单里出现的字段才算提供，空值也是有效的提供
func readProfileInput(c echo.Context) (*types.ProfileInput, *photo, error) {
	var in types.ProfileInput

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		if err := (&echo.DefaultBinder{}).BindBody(c, &in); err != nil {
			return nil, nil, fmt.Errorf("%w: invalid request body", errs.ErrValidation)
		}
		return &in, nil, nil
	}

	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) &&
		!strings.HasPrefix(contentType, echo.MIMEApplicationForm) {
		return nil, nil, fmt.Errorf("%w: unsupported content type", errs.ErrValidation)
	}

	params, err := c.FormParams()
	if err != nil {
		if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
			return nil, nil, errPhotoTooLarge
		}
		return nil, nil, fmt.Errorf("%w: problem with images", errs.ErrValidation)
	}
	in.Name = formValue(params, "name")
	in.Email = formValue(params, "email")
	in.Password = formValue(params, "password")

	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return &in, nil, nil
	}

	p, err := readPhoto(c)
	if err != nil {
		return nil, nil, err
	}

	return &in, p, nil
}

func formValue(params map[string][]string, key string) *string {
	values, ok := params[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func readPhoto(c echo.Context) (*photo, error) {
	fh, err := c.FormFile(constants.ProfilePhotoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
			return nil, errPhotoTooLarge
		}
		return nil, fmt.Errorf("%w: problem with images", errs.ErrValidation)
	}

	// 检查大小
	if fh.Size > constants.ProfilePhotoMaxSize {
		return nil, errPhotoTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: problem with images", errs.ErrValidation)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, constants.ProfilePhotoMaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: problem with images", errs.ErrValidation)
	}
	if len(data) > constants.ProfilePhotoMaxSize {
		return nil, errPhotoTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = http.DetectContentType(data)
	}

	return &photo{data: data, contentType: contentType}, nil
}
