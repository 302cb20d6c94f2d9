package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kammalabel/internal/config"
	"kammalabel/internal/models"
	"kammalabel/internal/utils"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		CodeTTLSeconds:     180,
		CodeLength:         6,
		MaxWrongAttempts:   5,
		ResendFloorSeconds: 60,
		MaxResendsPerWin:   3,
		ResendWindowMin:    10,
		TokenLength:        48,
		FullTokenDays:      30,
		TempTokenMinutes:   15,
	}
}

type verifyFixture struct {
	svc        *VerificationService
	repo       *fakeVerificationRepo
	users      *fakeUserRepo
	dispatcher *fakeDispatcher
	user       *models.User
	clock      time.Time
}

func newVerifyFixture(t *testing.T) *verifyFixture {
	t.Helper()
	f := &verifyFixture{
		repo:       &fakeVerificationRepo{},
		users:      &fakeUserRepo{},
		dispatcher: &fakeDispatcher{},
		clock:      time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	f.user = f.users.add(&models.User{
		FirstName: "Aigerim",
		Email:     "aigerim@example.com",
		Phone:     "+77011234567",
		IsActive:  true,
	})
	f.svc = NewVerificationService(f.repo, f.users, f.dispatcher, utils.NewSeededRandom(42), testAuthConfig())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *verifyFixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

// wrongCode — заведомо не совпадающий с выданным код.
func wrongCode(actual string) string {
	if actual == "000000" {
		return "111111"
	}
	return "000000"
}

func TestGenerateSendsCodeAndKeepsOneActive(t *testing.T) {
	f := newVerifyFixture(t)

	first, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.NoError(t, err)
	assert.Len(t, first.Code, 6)
	assert.NotEmpty(t, first.Key)
	assert.Equal(t, "aigerim@example.com", first.Receiver)
	assert.Equal(t, first.Code, f.dispatcher.lastCode())

	second, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Key, second.Key)

	active := f.repo.activeFor(f.user.ID, models.PurposeLogin)
	require.Len(t, active, 1)
	assert.Equal(t, second.Key, active[0].Key)

	// код другого назначения живёт независимо
	_, err = f.svc.Generate(f.user, models.PurposeChangeData, models.ChannelSMS, "")
	require.NoError(t, err)
	assert.Len(t, f.repo.activeFor(f.user.ID, models.PurposeLogin), 1)
	assert.Len(t, f.repo.activeFor(f.user.ID, models.PurposeChangeData), 1)
}

func TestGenerateDeliveryFailureKeepsRecord(t *testing.T) {
	f := newVerifyFixture(t)
	f.dispatcher.fail = true

	v, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.NotNil(t, v)

	// запись создана, код можно проверить несмотря на сбой отправки
	got, err := f.svc.CheckCode(models.PurposeLogin, v.Key, v.Code, f.user, true)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)
}

func TestCheckCodeConsumesOnSuccess(t *testing.T) {
	f := newVerifyFixture(t)
	v, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.NoError(t, err)

	_, err = f.svc.CheckCode(models.PurposeLogin, v.Key, v.Code, f.user, true)
	require.NoError(t, err)

	// повторная проверка того же кода — запись уже погашена
	_, err = f.svc.CheckCode(models.PurposeLogin, v.Key, v.Code, f.user, true)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCheckCodeWrongThenCorrect(t *testing.T) {
	f := newVerifyFixture(t)
	v, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.NoError(t, err)

	_, err = f.svc.CheckCode(models.PurposeLogin, v.Key, wrongCode(v.Code), f.user, true)
	assert.ErrorIs(t, err, ErrCodeInvalid)

	got, err := f.svc.CheckCode(models.PurposeLogin, v.Key, v.Code, f.user, true)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)
}

func TestCheckCodeLockedAfterMaxAttempts(t *testing.T) {
	f := newVerifyFixture(t)
	v, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = f.svc.CheckCode(models.PurposeLogin, v.Key, wrongCode(v.Code), f.user, true)
		assert.ErrorIs(t, err, ErrCodeInvalid)
	}
	// пятая ошибка достигает лимита
	_, err = f.svc.CheckCode(models.PurposeLogin, v.Key, wrongCode(v.Code), f.user, true)
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// правильный код после блокировки тоже не принимается
	_, err = f.svc.CheckCode(models.PurposeLogin, v.Key, v.Code, f.user, true)
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestCheckCodeExpired(t *testing.T) {
	f := newVerifyFixture(t)
	v, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.NoError(t, err)

	f.advance(179 * time.Second)
	_, err = f.svc.CheckCode(models.PurposeLogin, v.Key, v.Code, f.user, false)
	require.NoError(t, err)

	f.advance(2 * time.Second) // всего 181s с момента создания
	_, err = f.svc.CheckCode(models.PurposeLogin, v.Key, v.Code, f.user, true)
	assert.ErrorIs(t, err, ErrCodeExpired)
	assert.Empty(t, f.repo.activeFor(f.user.ID, models.PurposeLogin))
}

func TestCheckCodeOwnerMismatch(t *testing.T) {
	f := newVerifyFixture(t)
	other := f.users.add(&models.User{Email: "other@example.com", IsActive: true})

	v, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.NoError(t, err)

	// чужой пользователь с валидным ключом — как будто кода нет
	_, err = f.svc.CheckCode(models.PurposeLogin, v.Key, v.Code, other, true)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestResendFloorThrottle(t *testing.T) {
	f := newVerifyFixture(t)
	v, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.NoError(t, err)

	f.advance(30 * time.Second)
	_, err = f.svc.Resend(models.PurposeLogin, v.Key, "")
	assert.ErrorIs(t, err, ErrResendThrottled)

	f.advance(31 * time.Second)
	fresh, err := f.svc.Resend(models.PurposeLogin, v.Key, "")
	require.NoError(t, err)
	assert.NotEqual(t, v.Key, fresh.Key)
	assert.Equal(t, v.Receiver, fresh.Receiver)

	// старый ключ погашен заменой
	_, err = f.svc.CheckCode(models.PurposeLogin, v.Key, v.Code, f.user, true)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestResendWindowThrottle(t *testing.T) {
	f := newVerifyFixture(t)
	v, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		f.advance(61 * time.Second)
		v, err = f.svc.Resend(models.PurposeLogin, v.Key, "")
		require.NoError(t, err)
	}
	// в окне уже три отправки
	f.advance(61 * time.Second)
	_, err = f.svc.Resend(models.PurposeLogin, v.Key, "")
	assert.ErrorIs(t, err, ErrResendThrottled)
}

func TestResendSwitchesChannel(t *testing.T) {
	f := newVerifyFixture(t)
	v, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.NoError(t, err)

	f.advance(61 * time.Second)
	fresh, err := f.svc.Resend(models.PurposeLogin, v.Key, models.ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelSMS, fresh.Channel)
	assert.Equal(t, f.user.Phone, fresh.Receiver)
}

func TestDeactivateIfExpiredIsIdempotent(t *testing.T) {
	f := newVerifyFixture(t)
	v, err := f.svc.Generate(f.user, models.PurposeLogin, models.ChannelEmail, "")
	require.NoError(t, err)

	// до истечения — no-op
	require.NoError(t, f.svc.DeactivateIfExpired(v))
	assert.True(t, v.IsActive)

	f.advance(181 * time.Second)
	require.NoError(t, f.svc.DeactivateIfExpired(v))
	assert.False(t, v.IsActive)
	assert.Empty(t, f.repo.activeFor(f.user.ID, models.PurposeLogin))

	// повтор на уже погашенной записи ничего не ломает
	require.NoError(t, f.svc.DeactivateIfExpired(v))
}

func TestResendUnknownKey(t *testing.T) {
	f := newVerifyFixture(t)
	_, err := f.svc.Resend(models.PurposeLogin, "no-such-key", "")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}
