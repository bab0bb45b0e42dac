package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang/glog"

	"github.com/cassight/aspeak/internal/handler/httperror"
	"github.com/cassight/aspeak/internal/model/speech"
	speechsvc "github.com/cassight/aspeak/internal/service/speech"
	"github.com/cassight/aspeak/internal/service/ssml"
	"github.com/cassight/aspeak/pkg/utils"
)

const (
	maxBodyBytes = 1 << 20
	formatKey    = "format"
)

// SpeechService 抽象语音业务，便于测试与替换实现
type SpeechService interface {
	SynthesizeText(rCtx context.Context, sessionID string, opts *ssml.TextOptions, format speech.AudioFormat) (*speech.TTSResponse, error)
	SynthesizeSpeech(rCtx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error)
	Compile(opts *ssml.TextOptions) (string, error)
	SpeakSSML(rCtx context.Context, doc string, format speech.AudioFormat, sink io.Writer) error
	Formats() []speech.AudioFormat
}

// Handler 语音服务的HTTP处理器
type Handler struct {
	speechSvc SpeechService
}

// New 创建语音处理器
func New(speechSvc SpeechService) *Handler {
	return &Handler{speechSvc: speechSvc}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Post("/synthesize", h.handleSynthesize)
		speechRouter.Post("/synthesize/{sessionID}", h.handleSynthesizeWithSession)
		speechRouter.Post("/ssml", h.handleSynthesizeSSML)
		speechRouter.Post("/stream", h.handleStream)

		speechRouter.Get("/formats", h.handleFormats)
		speechRouter.Get("/health", h.handleHealth)
	})
}

// handleSynthesize 处理文本转语音请求
func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	h.processSynthesize(w, r, "")
}

// handleSynthesizeWithSession 处理带会话ID的文本转语音请求
func (h *Handler) handleSynthesizeWithSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	h.processSynthesize(w, r, sessionID)
}

func (h *Handler) processSynthesize(w http.ResponseWriter, r *http.Request, sessionID string) {
	opts, format, ok := h.decodeOptions(w, r)
	if !ok {
		return
	}

	if sessionID == "" {
		sessionID = middleware.GetReqID(r.Context())
	}

	resp, err := h.speechSvc.SynthesizeText(r.Context(), sessionID, opts, format)
	if err != nil {
		httperror.Respond(w, "speech", err)
		return
	}

	writeAudio(w, resp)
}

// handleSynthesizeSSML 直接合成请求体中的 SSML 文档
func (h *Handler) handleSynthesizeSSML(w http.ResponseWriter, r *http.Request) {
	var format speech.AudioFormat
	if raw := strings.TrimSpace(r.URL.Query().Get(formatKey)); raw != "" {
		parsed, err := speech.ParseAudioFormat(raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = parsed
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		utils.RespondError(w, http.StatusBadRequest, "ssml is required")
		return
	}

	resp, err := h.speechSvc.SynthesizeSpeech(r.Context(), &speech.TTSRequest{
		SessionID: middleware.GetReqID(r.Context()),
		SSML:      string(body),
		Format:    format,
	})
	if err != nil {
		httperror.Respond(w, "speech", err)
		return
	}

	writeAudio(w, resp)
}

// handleStream 以 SSE 推送音频帧，每帧一个 audio 事件，结束时发送 done
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	opts, format, ok := h.decodeOptions(w, r)
	if !ok {
		return
	}

	// 参数错误在切换为事件流之前以普通 JSON 返回
	doc, err := h.speechSvc.Compile(opts)
	if err != nil {
		httperror.Respond(w, "speech", err)
		return
	}

	utils.SetupSSEHeaders(w)

	var chunks, total int
	sink := speechsvc.CallbackSink(func(chunk []byte) error {
		chunks++
		total += len(chunk)
		return utils.SendSSEEvent(w, flusher, "audio", map[string]any{
			"seq":  chunks,
			"data": base64.StdEncoding.EncodeToString(chunk),
		})
	})

	if err := h.speechSvc.SpeakSSML(r.Context(), doc, format, sink); err != nil {
		glog.Warningf("[speech] stream failed after %d chunks: %v", chunks, err)
		utils.SendSSEEvent(w, flusher, "error", map[string]any{
			"status": httperror.Status(err),
			"error":  http.StatusText(httperror.Status(err)),
		})
		return
	}

	utils.SendSSEEvent(w, flusher, "done", map[string]any{
		"chunks": chunks,
		"size":   total,
	})
}

// handleFormats 列出支持的输出格式
func (h *Handler) handleFormats(w http.ResponseWriter, r *http.Request) {
	formats := h.speechSvc.Formats()
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f))
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"formats": names,
		"default": string(speech.DefaultAudioFormat),
	})
}

// handleHealth 健康检查端点
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "speech",
	})
}

// decodeOptions 解析 JSON 参数，出错时已写入响应
func (h *Handler) decodeOptions(w http.ResponseWriter, r *http.Request) (*ssml.TextOptions, speech.AudioFormat, bool) {
	var options map[string]any
	if err := utils.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &options); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return nil, "", false
	}

	var format speech.AudioFormat
	if raw, exists := options[formatKey]; exists && raw != nil {
		name, isString := raw.(string)
		if !isString {
			utils.RespondError(w, http.StatusBadRequest, fmt.Sprintf("invalid format %v: expected a string", raw))
			return nil, "", false
		}
		if strings.TrimSpace(name) != "" {
			parsed, err := speech.ParseAudioFormat(name)
			if err != nil {
				utils.RespondError(w, http.StatusBadRequest, err.Error())
				return nil, "", false
			}
			format = parsed
		}
	}

	opts, err := ssml.FromMap(options)
	if err != nil {
		httperror.Respond(w, "speech", err)
		return nil, "", false
	}
	return opts, format, true
}

func writeAudio(w http.ResponseWriter, resp *speech.TTSResponse) {
	format := resp.Format
	if format == "" {
		format = speech.DefaultAudioFormat
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.AudioData)))
	w.Header().Set("Content-Disposition", "attachment; filename=speech."+format.Extension())
	w.Header().Set("X-Audio-Cached", strconv.FormatBool(resp.Cached))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp.AudioData); err != nil {
		glog.Warningf("failed to write audio response: %v", err)
	}
}
