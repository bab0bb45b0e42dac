// Package httperror 将业务错误映射为 HTTP 状态码
package httperror

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang/glog"

	speechsvc "github.com/cassight/aspeak/internal/service/speech"
	"github.com/cassight/aspeak/internal/service/ssml"
	"github.com/cassight/aspeak/pkg/utils"
)

// Status 返回错误对应的状态码：参数错误 400，合成服务错误 502，超时 504，其余 500
func Status(err error) int {
	var validationErr *ssml.ValidationError
	var closeErr *speechsvc.CloseError
	var handshakeErr *speechsvc.HandshakeError

	switch {
	case errors.As(err, &validationErr), errors.Is(err, ssml.ErrMissingText):
		return http.StatusBadRequest
	case errors.As(err, &closeErr), errors.As(err, &handshakeErr), errors.Is(err, speechsvc.ErrConnectionClosed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Respond 记录并返回错误，5xx 不向调用方暴露内部细节
func Respond(w http.ResponseWriter, scope string, err error) {
	status := Status(err)
	switch {
	case status < http.StatusInternalServerError:
		utils.RespondError(w, status, err.Error())
	case status == http.StatusBadGateway:
		glog.Warningf("[%s] upstream error: %v", scope, err)
		utils.RespondError(w, status, "speech synthesis failed")
	case status == http.StatusGatewayTimeout:
		glog.Warningf("[%s] timeout: %v", scope, err)
		utils.RespondError(w, status, "speech synthesis timed out")
	default:
		glog.Errorf("[%s] error: %v", scope, err)
		utils.RespondError(w, status, "internal error")
	}
}
