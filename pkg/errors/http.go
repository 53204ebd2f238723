package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToHTTPStatus는 에러 코드를 HTTP 상태 코드로 변환합니다
func ToHTTPStatus(code string) int {
	httpStatus, _ := GetCodeMapping(code)
	return httpStatus
}

// CodeForHTTPStatus는 HTTP 상태 코드에 대응하는 에러 코드를 반환합니다
func CodeForHTTPStatus(httpStatus int) string {
	for code, pair := range codeMapping {
		if pair.HTTPStatus == httpStatus {
			return code
		}
	}
	if httpStatus >= 400 && httpStatus < 500 {
		return ErrInvalidArgument
	}
	return ErrInternal
}

// ToHTTPError는 에러를 {error, code} 본문을 가진 Echo HTTP 에러로 변환합니다.
// 내부 에러 메시지는 응답에 포함하지 않습니다.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	if msg, ok := publicMessage(err); ok {
		code := CodeOf(err)
		return echo.NewHTTPError(ToHTTPStatus(code), echo.Map{
			"error": msg,
			"code":  code,
		})
	}

	// Echo 에러인 경우 상태 코드를 유지합니다
	var echoErr *echo.HTTPError
	if As(err, &echoErr) {
		if _, ok := echoErr.Message.(echo.Map); ok {
			return echoErr
		}
		msg, ok := echoErr.Message.(string)
		if !ok || echoErr.Code >= http.StatusInternalServerError {
			msg = http.StatusText(echoErr.Code)
		}
		return echo.NewHTTPError(echoErr.Code, echo.Map{
			"error": msg,
			"code":  CodeForHTTPStatus(echoErr.Code),
		})
	}

	// 기본 에러는 500으로 처리
	return echo.NewHTTPError(http.StatusInternalServerError, echo.Map{
		"error": http.StatusText(http.StatusInternalServerError),
		"code":  ErrInternal,
	})
}
