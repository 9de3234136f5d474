package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/wolfman30/fairdeal-taxi/cmd/mainconfig"
	"github.com/wolfman30/fairdeal-taxi/internal/app/bootstrap"
	appconfig "github.com/wolfman30/fairdeal-taxi/internal/config"
	"github.com/wolfman30/fairdeal-taxi/internal/http/handlers"
	"github.com/wolfman30/fairdeal-taxi/internal/notify"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

const relayPath = "/api/send-booking-notification"

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	var sesClient *sesv2.Client
	var sqsClient *sqs.Client
	if mainconfig.NeedsAWS(cfg) {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			panic(err)
		}
		sesClient = sesv2.NewFromConfig(awsCfg)
		sqsClient = sqs.NewFromConfig(awsCfg)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, false)
	pg := bootstrap.BuildPostgres(ctx, cfg, logger)
	svc := bootstrap.BuildNotifyService(cfg, bootstrap.NotifyDeps{Redis: redisClient, SES: sesClient}, logger)
	store := bootstrap.BuildBookingsService(pg, logger)

	// An in-process queue would not outlive the invocation, so async mode needs SQS.
	var queue notify.QueueClient
	if cfg.RelayAsync && !cfg.UseMemoryQueue {
		q, _, err := bootstrap.BuildNotifyQueue(cfg, sqsClient)
		if err != nil {
			panic(err)
		}
		queue = q
	}
	relay := bootstrap.BuildRelay(svc, store, queue, "lambda", logger)

	handler := handlers.NewBookingRelayHandler(relay, nil, "lambda", logger)
	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, handler, evt)
	})
}

var corsHeaders = map[string]string{
	"access-control-allow-origin":  "*",
	"access-control-allow-methods": "POST, OPTIONS",
	"access-control-allow-headers": "Content-Type",
}

func handle(ctx context.Context, relay http.Handler, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}

	if path == "/health" || path == "/_health" {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Body: "ok"}, nil
	}
	if path != relayPath {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}

	switch method {
	case http.MethodOptions:
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNoContent, Headers: withCORS(nil)}, nil
	case http.MethodPost:
	default:
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed, Headers: withCORS(nil)}, nil
	}

	body, err := decodeBody(evt)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid body", Headers: withCORS(nil)}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, relayPath, bytes.NewReader(body))
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError, Headers: withCORS(nil)}, nil
	}
	if ct := headerValue(evt.Headers, "content-type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	req.RemoteAddr = evt.RequestContext.HTTP.SourceIP

	rw := newBufferedWriter()
	relay.ServeHTTP(rw, req)

	headers := map[string]string{}
	if ct := rw.header.Get("Content-Type"); ct != "" {
		headers["content-type"] = ct
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: rw.status,
		Body:       rw.body.String(),
		Headers:    withCORS(headers),
	}, nil
}

func withCORS(headers map[string]string) map[string]string {
	if headers == nil {
		headers = make(map[string]string, len(corsHeaders))
	}
	for k, v := range corsHeaders {
		headers[k] = v
	}
	return headers
}

// bufferedWriter collects a handler response for the API Gateway reply.
type bufferedWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: http.Header{}, status: http.StatusOK}
}

func (w *bufferedWriter) Header() http.Header { return w.header }

func (w *bufferedWriter) Write(p []byte) (int, error) { return w.body.Write(p) }

func (w *bufferedWriter) WriteHeader(status int) { w.status = status }

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
