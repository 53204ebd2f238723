package errors

import (
	stderrors "errors"
	"fmt"
)

// 표준 라이브러리 함수 재노출
var (
	New = stderrors.New
	Is  = stderrors.Is
	As  = stderrors.As
)

// Coded는 공통 코드 테이블에 매핑되는 에러입니다.
// 도메인 에러도 AppCode만 구현하면 HTTP/gRPC 변환과 로깅이 같은 규칙을 따릅니다.
type Coded interface {
	error
	AppCode() string
}

// publicMessager는 원인 에러를 제외한 외부 응답용 메시지를 제공합니다
type publicMessager interface {
	PublicMessage() string
}

// AppError는 코드와 외부 응답용 메시지를 가진 에러입니다. 원인 에러는 로그에만 남습니다.
type AppError struct {
	code    string
	message string
	cause   error
}

// NewAppError는 새 애플리케이션 에러를 생성합니다
func NewAppError(code string, message string, cause error) *AppError {
	return &AppError{code: code, message: message, cause: cause}
}

func (e *AppError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %v", e.message, e.cause)
}

func (e *AppError) AppCode() string       { return e.code }
func (e *AppError) PublicMessage() string { return e.message }
func (e *AppError) Unwrap() error         { return e.cause }

// Wrap은 원인 에러의 코드를 유지한 채 메시지를 덧붙입니다. 코드가 없으면 ErrInternal.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return NewAppError(CodeOf(err), message, err)
}

// CodeOf는 에러 체인에서 가장 바깥쪽 코드를 찾아 반환합니다. 없으면 ErrInternal.
func CodeOf(err error) string {
	var coded Coded
	if As(err, &coded) {
		return coded.AppCode()
	}
	return ErrInternal
}

// HasCode는 에러 체인의 코드가 code인지 확인합니다
func HasCode(err error, code string) bool {
	var coded Coded
	return As(err, &coded) && coded.AppCode() == code
}

// publicMessage는 외부에 노출해도 되는 메시지를 찾습니다.
// 코드가 없는 에러나 내부 에러는 노출하지 않습니다.
func publicMessage(err error) (string, bool) {
	var coded Coded
	if !As(err, &coded) || coded.AppCode() == ErrInternal {
		return "", false
	}
	if pm, ok := coded.(publicMessager); ok {
		return pm.PublicMessage(), true
	}
	return "", false
}
