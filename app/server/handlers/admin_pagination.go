package handlers

import "strconv"

const defaultPageLimit = 100

func (a *App) parsePagination(pageStr, limitStr string) (bool, int, int) {
	page, pageErr := strconv.ParseUint(pageStr, 10, 32)
	limit, limitErr := strconv.ParseUint(limitStr, 10, 32)

	if pageErr == nil && page == 0 && limitErr == nil && limit == 0 {
		// 特殊参数：展示全部
		return true, -1, -1
	}
	// 映射前：第几页，每页限制多少个
	// 映射后：页减一，限制不变
	var parsedPage, parsedLimit uint64

	if pageErr != nil || page < 1 {
		parsedPage = 0
	} else {
		parsedPage = page - 1
	}

	if limitErr != nil || limit == 0 {
		parsedLimit = defaultPageLimit
	} else {
		parsedLimit = limit
	}

	return false, int(parsedPage), int(parsedLimit)
}

func (a *App) calcMaxPage(count int64, showAll bool, limit int) int64 {
	if showAll {
		return 1
	} else {
		pageMax := count / int64(limit)
		if (count % int64(limit)) != 0 {
			pageMax++
		}
		return pageMax
	}
}
