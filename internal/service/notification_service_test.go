package service

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/blane-next/internal/cache"
	"github.com/blane-next/internal/config"
	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/queue"
	"github.com/blane-next/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	messages []MailMessage
	err      error
}

func (m *recordingMailer) Send(msg MailMessage) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func newTestNotificationService(env *serviceTestEnv, mailer Mailer) *NotificationService {
	return NewNotificationService(env.settlementRepo, env.vendorRepo, env.settings, env.reports, mailer, nil)
}

func TestSendSettlementProcessedEmail(t *testing.T) {
	env := seedReportFixtures(t, "notify_processed")
	mailer := &recordingMailer{}
	svc := newTestNotificationService(env, mailer)

	records, _, err := env.settlements.List(repository.SettlementListFilter{VendorID: 1})
	require.NoError(t, err)
	ids := make([]uint, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	// 混入其它商家的记录不应出现在通知中
	ids = append(ids, 3)

	err = svc.SendSettlementProcessedEmail(testContext(), queue.SettlementProcessedEmailPayload{
		VendorID:      1,
		SettlementIDs: ids,
		TransferDate:  "2026-03-16",
	})
	require.NoError(t, err)
	require.Len(t, mailer.messages, 1)
	msg := mailer.messages[0]
	assert.Equal(t, []string{"hammam@example.com"}, msg.To)
	assert.Contains(t, msg.Subject, "2")
	assert.Contains(t, msg.Body, "2026-03-16")
	assert.Contains(t, msg.Body, "270.00")
	assert.Equal(t, 2, strings.Count(msg.Body, "ORD-"))

	require.NoError(t, svc.SendSettlementProcessedEmail(testContext(), queue.SettlementProcessedEmailPayload{VendorID: 999, SettlementIDs: ids}))
	assert.Len(t, mailer.messages, 1)
}

func TestSendWeeklyBankingReportAttachesXLSX(t *testing.T) {
	env := seedReportFixtures(t, "notify_weekly")
	mailer := &recordingMailer{}
	svc := newTestNotificationService(env, mailer)

	err := svc.SendWeeklyBankingReport(testContext(), queue.WeeklyBankingReportEmailPayload{
		WeekStart: testReportWeek,
		WeekEnd:   testReportWeek,
	})
	require.NoError(t, err)
	require.Len(t, mailer.messages, 1)
	msg := mailer.messages[0]
	assert.Equal(t, []string{"finance@example.com"}, msg.To)
	assert.Contains(t, msg.Subject, testReportWeek)
	assert.Contains(t, msg.Body, "540.00")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "banking-report-2026-03-09_2026-03-09.xlsx", msg.Attachments[0].Filename)
	assert.NotEmpty(t, msg.Attachments[0].Content)
}

func TestDispatchWeeklyReportIfDue(t *testing.T) {
	env := seedReportFixtures(t, "notify_dispatch")
	mailer := &recordingMailer{}
	svc := newTestNotificationService(env, mailer)

	wednesday := testNow()
	sent, err := svc.DispatchWeeklyReportIfDue(testContext(), wednesday)
	require.NoError(t, err)
	assert.False(t, sent)

	monday := time.Date(2026, 3, 16, 8, 0, 0, 0, time.Local)
	sent, err = svc.DispatchWeeklyReportIfDue(testContext(), monday)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, mailer.messages, 1)
	assert.Contains(t, mailer.messages[0].Subject, testReportWeek)

	sent, err = svc.DispatchWeeklyReportIfDue(testContext(), monday.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, sent, "same ISO week must only be dispatched once")
	assert.Len(t, mailer.messages, 1)
}

func TestDispatchWeeklyReportRetriesAfterSendFailure(t *testing.T) {
	env := seedReportFixtures(t, "notify_retry")
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := newTestNotificationService(env, mailer)

	monday := time.Date(2026, 3, 16, 8, 0, 0, 0, time.Local)
	_, err := svc.DispatchWeeklyReportIfDue(testContext(), monday)
	require.Error(t, err)

	mailer.err = nil
	sent, err := svc.DispatchWeeklyReportIfDue(testContext(), monday.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Len(t, mailer.messages, 1)
	assert.True(t, strings.HasSuffix(mailer.messages[0].Attachments[0].Filename, "."+constants.ReportFormatXLSX))
}

func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	require.NoError(t, cache.InitRedis(&config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port, Prefix: "test"}))
	t.Cleanup(func() { _ = cache.Close() })
	return mr
}

func TestDispatchWeeklyReportRetriesAfterSendFailureWithRedis(t *testing.T) {
	env := seedReportFixtures(t, "notify_retry_redis")
	mr := setupMiniRedis(t)
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := newTestNotificationService(env, mailer)

	monday := time.Date(2026, 3, 16, 8, 0, 0, 0, time.Local)
	_, err := svc.DispatchWeeklyReportIfDue(testContext(), monday)
	require.Error(t, err)
	assert.False(t, mr.Exists("test:settlement:weekly_report:2026-W11"), "failed send must release the week mark")

	mailer.err = nil
	sent, err := svc.DispatchWeeklyReportIfDue(testContext(), monday.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Len(t, mailer.messages, 1)
	assert.True(t, mr.Exists("test:settlement:weekly_report:2026-W11"))

	// 另一进程（无进程内标记）同一周不再发送
	other := newTestNotificationService(env, mailer)
	sent, err = other.DispatchWeeklyReportIfDue(testContext(), monday.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Len(t, mailer.messages, 1)
}
