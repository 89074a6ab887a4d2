package api

import (
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"

    models "NeuroFeat/internal/domain/models"
    icache "NeuroFeat/internal/service/cache"
    "NeuroFeat/internal/service/exec"
    svcmetrics "NeuroFeat/internal/service/metrics"
    "NeuroFeat/internal/services/features"
    "NeuroFeat/internal/usecase"
    xhttp "NeuroFeat/pkg/http"
    xlogger "NeuroFeat/pkg/logger"
    xutil "NeuroFeat/pkg/util"

    "github.com/labstack/echo/v4"
)

// FeaturizeEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type FeaturizeEchoHandler struct {
	logger    *xlogger.Logger
	feat      *usecase.Featurizer
	corpus    *usecase.CorpusFeaturizer
	trainer   *usecase.Trainer
	respCache icache.BytesCache
}

func NewFeaturizeEchoHandler(logger *xlogger.Logger, feat *usecase.Featurizer, corpus *usecase.CorpusFeaturizer, trainer *usecase.Trainer, respCache icache.BytesCache) *FeaturizeEchoHandler {
	svcmetrics.Register()
	return &FeaturizeEchoHandler{logger: logger, feat: feat, corpus: corpus, trainer: trainer, respCache: respCache}
}

func (h *FeaturizeEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/featurize", h.Featurize)
	g.POST("/featurize/corpus", h.Corpus)
	g.POST("/train", h.Train)
	g.POST("/predict", h.Predict)
	g.GET("/features", h.Features)
}

func (h *FeaturizeEchoHandler) Featurize(c echo.Context) error {
	start := time.Now()
	req := &models.FeaturizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues("featurize").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	ds := &models.Dataset{Signals: models.ToSignals(req.Signals)}
	table, err := h.feat.Featurize(c.Request().Context(), ds, usecase.FeatureRequest{
		Features: req.Features,
		Backend:  req.Backend,
	})
	if err != nil {
		h.logger.Error("featurize usecase error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("featurize").Inc()
		return xhttp.AppErrorResponse(c, featurizeError(err))
	}
	svcmetrics.APILatency.WithLabelValues("featurize").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, models.NewFeatureTableResponse(table))
}

func (h *FeaturizeEchoHandler) Corpus(c echo.Context) error {
	start := time.Now()
	req := &models.CorpusFeaturizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues("featurize_corpus").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	// corpus tables are expensive; serve a short-lived cached copy when possible
	key := corpusCacheKey(req)
	if h.respCache != nil {
		if b, ok, err := h.respCache.GetBytes(key); err == nil && ok {
			var cached models.FeatureTableResponse
			if json.Unmarshal(b, &cached) == nil {
				return xhttp.SuccessResponse(c, &cached)
			}
		}
	}

	table, err := h.corpus.Featurize(c.Request().Context(), corpusRequest(req))
	if err != nil {
		h.logger.Error("corpus usecase error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("featurize_corpus").Inc()
		return xhttp.AppErrorResponse(c, featurizeError(err))
	}
	resp := models.NewFeatureTableResponse(table)
	if h.respCache != nil {
		if b, err := json.Marshal(resp); err == nil {
			_ = h.respCache.SetBytes(key, b, time.Minute)
		}
	}
	svcmetrics.APILatency.WithLabelValues("featurize_corpus").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, resp)
}

func (h *FeaturizeEchoHandler) Train(c echo.Context) error {
	start := time.Now()
	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues("train").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	table, err := h.corpus.Featurize(ctx, corpusRequest(&req.CorpusFeaturizeRequest))
	if err != nil {
		h.logger.Error("train featurize error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("train").Inc()
		return xhttp.AppErrorResponse(c, featurizeError(err))
	}
	res, err := h.trainer.Train(ctx, table, usecase.TrainOptions{K: req.K, TestSplit: req.TestSplit})
	if err != nil {
		h.logger.Error("train usecase error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("train").Inc()
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	svcmetrics.APILatency.WithLabelValues("train").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, res)
}

func (h *FeaturizeEchoHandler) Predict(c echo.Context) error {
	start := time.Now()
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues("predict").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	model, err := h.trainer.Model(req.ModelID)
	if err != nil {
		svcmetrics.APIErrors.WithLabelValues("predict").Inc()
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	}

	// featurize with the model's feature set so the table shape matches
	ds := &models.Dataset{Signals: models.ToSignals(req.Signals)}
	table, err := h.feat.Featurize(ctx, ds, usecase.FeatureRequest{
		Features: model.Features,
		Backend:  req.Backend,
	})
	if err != nil {
		h.logger.Error("predict featurize error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("predict").Inc()
		return xhttp.AppErrorResponse(c, featurizeError(err))
	}
	labels, probas, err := h.trainer.Predict(ctx, req.ModelID, table)
	if err != nil {
		h.logger.Error("predict usecase error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("predict").Inc()
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	svcmetrics.APILatency.WithLabelValues("predict").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, &models.PredictResponse{
		ModelID: req.ModelID,
		IDs:     table.IDs,
		Labels:  labels,
		Probas:  probas,
	})
}

// Features lists registered feature names and available backends.
func (h *FeaturizeEchoHandler) Features(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"features": features.Names(),
		"backends": h.feat.Backends(),
	})
}

func corpusCacheKey(req *models.CorpusFeaturizeRequest) string {
	return fmt.Sprintf("corpus:table:%s:%s:%s:%d:%s:%s",
		strings.Join(req.Sessions, ","), req.From, req.To, req.Limit,
		strings.Join(req.Features, ","), req.Backend)
}

func corpusRequest(req *models.CorpusFeaturizeRequest) usecase.CorpusRequest {
	now := time.Now()
	return usecase.CorpusRequest{
		SessionIDs: req.Sessions,
		From:       xutil.ParseTimeDefault(req.From, now.Add(-24*time.Hour)),
		To:         xutil.ParseTimeDefault(req.To, now),
		Limit:      req.Limit,
		Features:   req.Features,
		Backend:    req.Backend,
	}
}

// featurizeError maps typed featurization faults onto HTTP statuses.
func featurizeError(err error) error {
	var unknown *features.UnknownFeatureError
	if errors.As(err, &unknown) {
		return xhttp.NewAppError("ERR_UNKNOWN_FEATURE", "features", unknown.Error(), 400).
			WithParam("feature", unknown.Name)
	}
	var chans *features.ChannelCountError
	if errors.As(err, &chans) {
		return xhttp.NewAppError("ERR_CHANNEL_MISMATCH", "signals", chans.Error(), 400)
	}
	var comp *features.ComputationError
	if errors.As(err, &comp) {
		return xhttp.NewAppError("ERR_COMPUTATION", "", comp.Error(), 422).
			WithParam("signal", comp.SignalID).
			WithParam("feature", comp.Feature).
			WithParam("channel", comp.Channel)
	}
	var task *exec.TaskFailureError
	if errors.As(err, &task) {
		return xhttp.NewAppError("ERR_TASK_FAILURE", "", task.Error(), 500).
			WithParam("index", task.Index)
	}
	return err
}
