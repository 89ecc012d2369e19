package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "job not found",
			},
			want: "job not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeStoreUnavailable,
				Message: "failed to insert job",
				Cause:   errors.New("connection refused"),
			},
			want: "failed to insert job: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeInternal,
		Message: "wrapped error",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"not found", NotFound("x"), ErrCodeNotFound},
		{"not foundf", NotFoundf("job %s", "1"), ErrCodeNotFound},
		{"already finished", AlreadyFinished("x"), ErrCodeAlreadyFinished},
		{"conflict", Conflict("x"), ErrCodeConflict},
		{"validation", Validation("x"), ErrCodeValidation},
		{"malformed request", MalformedRequest("x"), ErrCodeMalformedRequest},
		{"rate limited", RateLimited("x"), ErrCodeRateLimited},
		{"store unavailable", StoreUnavailable(errors.New("down")), ErrCodeStoreUnavailable},
		{"internal", Internal("x"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
		})
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("url", "url is required")
	if err.Code != ErrCodeValidation {
		t.Errorf("ValidationField().Code = %v, want %v", err.Code, ErrCodeValidation)
	}
	if err.Field != "url" {
		t.Errorf("ValidationField().Field = %v, want url", err.Field)
	}
	if GetField(err) != "url" {
		t.Errorf("GetField() = %v, want url", GetField(err))
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "ignored"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestWrapf(t *testing.T) {
	cause := errors.New("boom")
	err := Wrapf(cause, ErrCodeInternal, "job %s failed", "abc")
	if err.Message != "job abc failed" {
		t.Errorf("Wrapf().Message = %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("Wrapf() should preserve cause")
	}
}

func TestIsHelpers_ThroughWrapping(t *testing.T) {
	base := AlreadyFinished("job already finished")
	wrapped := fmt.Errorf("transition: %w", base)

	if !IsAlreadyFinished(wrapped) {
		t.Error("IsAlreadyFinished should see through fmt.Errorf wrapping")
	}
	if IsNotFound(wrapped) {
		t.Error("IsNotFound should be false for AlreadyFinished")
	}
	if GetCode(wrapped) != ErrCodeAlreadyFinished {
		t.Errorf("GetCode() = %v", GetCode(wrapped))
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode() should be empty for non-AppError")
	}
	if !IsStoreUnavailable(StoreUnavailable(errors.New("x"))) {
		t.Error("IsStoreUnavailable should match StoreUnavailable()")
	}
}
