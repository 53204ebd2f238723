package errors

import (
	"go.uber.org/zap"
)

// LogError는 에러를 구조화된 로그로 기록합니다
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}

	allFields := make([]zap.Field, 0, len(fields)+2)
	allFields = append(allFields, zap.Error(err), zap.String("error_code", CodeOf(err)))
	allFields = append(allFields, fields...)

	// 클라이언트 측 에러는 Warn 레벨로 기록
	if status := ToHTTPStatus(CodeOf(err)); status >= 400 && status < 500 {
		logger.Warn(msg, allFields...)
		return
	}

	logger.Error(msg, allFields...)
}
