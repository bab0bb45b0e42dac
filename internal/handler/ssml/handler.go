package ssml

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/golang/glog"

	"github.com/cassight/aspeak/internal/handler/httperror"
	"github.com/cassight/aspeak/internal/service/ssml"
	"github.com/cassight/aspeak/pkg/utils"
)

// Compiler 合并默认参数并编译 SSML
type Compiler interface {
	Compile(opts *ssml.TextOptions) (string, error)
}

// Handler SSML 预览接口
type Handler struct {
	compiler Compiler
}

// New 创建处理器
func New(compiler Compiler) *Handler {
	return &Handler{compiler: compiler}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ssml", h.handleCompile)
}

// handleCompile 把 JSON 参数编译为 SSML 文档，不访问合成服务
func (h *Handler) handleCompile(w http.ResponseWriter, r *http.Request) {
	var options map[string]any
	if err := utils.DecodeJSON(http.MaxBytesReader(w, r.Body, 1<<20), &options); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts, err := ssml.FromMap(options)
	if err != nil {
		httperror.Respond(w, "ssml", err)
		return
	}

	doc, err := h.compiler.Compile(opts)
	if err != nil {
		httperror.Respond(w, "ssml", err)
		return
	}

	w.Header().Set("Content-Type", "application/ssml+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(doc)); err != nil {
		glog.Warningf("[ssml] failed to write response: %v", err)
	}
}
