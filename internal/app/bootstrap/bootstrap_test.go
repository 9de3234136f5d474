package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/fairdeal-taxi/internal/config"
	"github.com/wolfman30/fairdeal-taxi/internal/messaging"
	"github.com/wolfman30/fairdeal-taxi/internal/notify"
	"github.com/wolfman30/fairdeal-taxi/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true))
	assert.Nil(t, BuildRedisClient(context.Background(), nil, nil, true))
}

func TestBuildRedisClientVerifies(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr()}

	client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true)
	require.NotNil(t, client)
	_ = client.Close()

	mr.Close()
	assert.Nil(t, BuildRedisClient(context.Background(), cfg, logging.New("error"), true))
}

func TestBuildPostgresEmptyURLReturnsNil(t *testing.T) {
	assert.Nil(t, BuildPostgres(context.Background(), &appconfig.Config{}, logging.New("error")))
}

func TestBuildBookingsServiceFallsBackToMemory(t *testing.T) {
	svc := BuildBookingsService(nil, logging.New("error"))
	require.NotNil(t, svc)
	recent, err := svc.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestBuildEmailSenderSelection(t *testing.T) {
	logger := logging.New("error")
	ses := sesv2.New(sesv2.Options{Region: "us-east-1"})

	cases := []struct {
		name string
		cfg  appconfig.Config
		ses  *sesv2.Client
		want string
	}{
		{"auto prefers sendgrid", appconfig.Config{EmailProvider: "auto", SendGridAPIKey: "SG.x", SESFromEmail: "a@b.c"}, ses, EmailProviderSendGrid},
		{"auto falls back to ses", appconfig.Config{EmailProvider: "auto", SESFromEmail: "a@b.c"}, ses, EmailProviderSES},
		{"ses without client", appconfig.Config{EmailProvider: "ses", SESFromEmail: "a@b.c"}, nil, EmailProviderStub},
		{"sendgrid without key", appconfig.Config{EmailProvider: "sendgrid"}, ses, EmailProviderStub},
		{"explicit stub", appconfig.Config{EmailProvider: "stub", SendGridAPIKey: "SG.x"}, ses, EmailProviderStub},
		{"unknown", appconfig.Config{EmailProvider: "mailgun"}, ses, EmailProviderStub},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender, provider := BuildEmailSender(&tc.cfg, tc.ses, logger)
			assert.NotNil(t, sender)
			assert.Equal(t, tc.want, provider)
		})
	}
}

func TestBuildSMSSender(t *testing.T) {
	logger := logging.New("error")

	sender, provider := BuildSMSSender(&appconfig.Config{}, logger)
	assert.Equal(t, "stub", provider)
	assert.IsType(t, &notify.StubSMSSender{}, sender)

	sender, provider = BuildSMSSender(&appconfig.Config{
		TwilioAccountSID: "AC1", TwilioAuthToken: "tok", TwilioFromNumber: "5185550100",
	}, logger)
	assert.Equal(t, messaging.SMSProviderTwilio, provider)
	assert.IsType(t, &messaging.TwilioSender{}, sender)
}

func TestBuildNotifyServiceUsesProfile(t *testing.T) {
	cfg := &appconfig.Config{BusinessEmail: "dispatch@fairdeal.test", BusinessPhone: "5185550199", DedupeTTL: time.Hour}
	svc := BuildNotifyService(cfg, NotifyDeps{}, logging.New("error"))

	assert.Equal(t, "dispatch@fairdeal.test", svc.Profile().Email)
	assert.Equal(t, "(518) 555-0199", svc.Profile().PhoneDisplay)
}

func TestBuildNotifyQueue(t *testing.T) {
	queue, memory, err := BuildNotifyQueue(&appconfig.Config{UseMemoryQueue: true}, nil)
	require.NoError(t, err)
	assert.NotNil(t, memory)
	assert.Equal(t, notify.QueueClient(memory), queue)

	_, _, err = BuildNotifyQueue(&appconfig.Config{}, nil)
	assert.ErrorIs(t, err, ErrNoQueue)

	client := sqs.NewFromConfig(aws.Config{Region: "us-east-1"})
	queue, memory, err = BuildNotifyQueue(&appconfig.Config{NotifyQueueURL: "http://localhost:4566/000000000000/notify"}, client)
	require.NoError(t, err)
	assert.Nil(t, memory)
	assert.IsType(t, &notify.SQSQueue{}, queue)
}

func TestNotifyWorkerStartsAndStops(t *testing.T) {
	cfg := &appconfig.Config{WorkerCount: 1, NotifyTimeout: time.Second}
	assert.Nil(t, StartNotifyWorker(context.Background(), cfg, nil, nil, nil))
	assert.True(t, WaitForWorker(nil, time.Second, nil))

	svc := BuildNotifyService(cfg, NotifyDeps{}, logging.New("error"))
	ctx, cancel := context.WithCancel(context.Background())
	worker := StartNotifyWorker(ctx, cfg, svc, notify.NewMemoryQueue(1), logging.New("error"))
	require.NotNil(t, worker)

	cancel()
	assert.True(t, WaitForWorker(worker, 5*time.Second, logging.New("error")))
}
