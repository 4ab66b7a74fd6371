package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/config"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/otp"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/store"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/token"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users   map[int]types.User
	nextID  int
	lookups int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User), nextID: 1}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	r.lookups++
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.lookups++
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) GetByEmailOrPhone(_ context.Context, email, phone string) (types.User, error) {
	r.lookups++
	for _, user := range r.users {
		if user.Email == email || user.PhoneNumber == phone {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) UpdatePasswordByEmail(_ context.Context, email, passwordHash string) error {
	for id, user := range r.users {
		if user.Email == email {
			user.PasswordHash = passwordHash
			r.users[id] = user
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]types.User, error) {
	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

type fakeSMSSender struct {
	sent []string // message bodies
	to   []string
	fail bool
}

func (s *fakeSMSSender) Send(_ context.Context, to, body string) error {
	if s.fail {
		return errors.New("sms gateway unreachable")
	}
	s.to = append(s.to, to)
	s.sent = append(s.sent, body)
	return nil
}

type fakeMailSender struct {
	sent []string // html bodies
	to   []string
	fail bool
}

func (s *fakeMailSender) Send(_ context.Context, to, subject, htmlBody string) error {
	if s.fail {
		return errors.New("smtp unreachable")
	}
	s.to = append(s.to, to)
	s.sent = append(s.sent, htmlBody)
	return nil
}

type authFixture struct {
	svc   *AuthService
	repo  *fakeUserRepo
	sms   *fakeSMSSender
	mail  *fakeMailSender
	admin config.AdminConfig
}

func newAuthFixture() *authFixture {
	repo := newFakeUserRepo()
	sms := &fakeSMSSender{}
	mail := &fakeMailSender{}
	admin := config.AdminConfig{
		Email:    "admin@ecommerce.com",
		Password: "Admin@123",
		Username: "Admin",
	}
	ledger := otp.NewMemoryLedger()
	svc := NewAuthService(
		repo,
		otp.NewChannelService("phone", ledger),
		otp.NewChannelService("email", ledger),
		sms,
		mail,
		token.NewService("access-secret", "refresh-secret"),
		admin,
	)
	return &authFixture{svc: svc, repo: repo, sms: sms, mail: mail, admin: admin}
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Username:    "buyer",
		Email:       "buyer@example.com",
		Password:    "plaintext-secret",
		PhoneNumber: "15551234567",
	}
}

// lastSMSCode pulls the code out of the most recent SMS body.
func lastSMSCode(t *testing.T, sms *fakeSMSSender) string {
	t.Helper()
	require.NotEmpty(t, sms.sent)
	body := sms.sent[len(sms.sent)-1]
	fields := strings.Fields(body)
	return fields[len(fields)-1]
}

func TestRegisterHashesPassword(t *testing.T) {
	f := newAuthFixture()
	input := validRegisterInput()

	user, delivery, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, types.RoleUser, user.Role)
	assert.True(t, delivery.PhoneDelivered)
	assert.True(t, delivery.EmailDelivered)

	stored := f.repo.users[user.ID]
	assert.NotEqual(t, input.Password, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(input.Password)))
}

func TestRegisterRejectsAdminEmail(t *testing.T) {
	f := newAuthFixture()
	input := validRegisterInput()
	input.Email = f.admin.Email

	_, _, err := f.svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrAdminEmail)
	assert.Empty(t, f.repo.users)
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	f := newAuthFixture()
	input := validRegisterInput()

	_, _, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, _, err = f.svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestRegisterSucceedsWhenDeliveryFails(t *testing.T) {
	f := newAuthFixture()
	f.sms.fail = true
	f.mail.fail = true

	user, delivery, err := f.svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, delivery.PhoneDelivered)
	assert.False(t, delivery.EmailDelivered)
}

func TestLoginAdminBypassesStore(t *testing.T) {
	f := newAuthFixture()

	result, err := f.svc.Login(context.Background(), f.admin.Email, f.admin.Password)
	require.NoError(t, err)
	assert.Equal(t, 0, f.repo.lookups)
	assert.Equal(t, types.RoleAdmin, result.Profile.Role)
	assert.True(t, token.IsAdminSubject(result.Profile.ID))
}

func TestLoginAdminEmailWrongPassword(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Login(context.Background(), f.admin.Email, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUser(t *testing.T) {
	f := newAuthFixture()
	input := validRegisterInput()
	_, _, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)

	result, err := f.svc.Login(context.Background(), input.Email, input.Password)
	require.NoError(t, err)
	assert.Equal(t, types.RoleUser, result.Profile.Role)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	_, err = f.svc.Login(context.Background(), input.Email, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), "nobody@example.com", input.Password)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshReflectsCurrentRole(t *testing.T) {
	f := newAuthFixture()
	input := validRegisterInput()
	user, _, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)

	result, err := f.svc.Login(context.Background(), input.Email, input.Password)
	require.NoError(t, err)

	// Promote after login; refresh must pick up the new role.
	promoted := f.repo.users[user.ID]
	promoted.Role = types.RoleAdmin
	f.repo.users[user.ID] = promoted

	access, err := f.svc.Refresh(context.Background(), result.RefreshToken)
	require.NoError(t, err)

	identity, err := token.NewService("access-secret", "refresh-secret").VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, identity.Role)
	assert.False(t, identity.BuiltIn)
}

func TestRefreshAdminWithoutLookup(t *testing.T) {
	f := newAuthFixture()

	result, err := f.svc.Login(context.Background(), f.admin.Email, f.admin.Password)
	require.NoError(t, err)

	lookupsBefore := f.repo.lookups
	access, err := f.svc.Refresh(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, lookupsBefore, f.repo.lookups)

	identity, err := token.NewService("access-secret", "refresh-secret").VerifyAccess(access)
	require.NoError(t, err)
	assert.True(t, identity.BuiltIn)
	assert.Equal(t, types.RoleAdmin, identity.Role)
}

func TestRefreshAccountGone(t *testing.T) {
	f := newAuthFixture()
	input := validRegisterInput()
	user, _, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)

	result, err := f.svc.Login(context.Background(), input.Email, input.Password)
	require.NoError(t, err)

	delete(f.repo.users, user.ID)

	_, err = f.svc.Refresh(context.Background(), result.RefreshToken)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshGarbageToken(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestForgotPasswordUnknownEmailSendsNothing(t *testing.T) {
	f := newAuthFixture()

	result, err := f.svc.ForgotPassword(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, result.AccountExists)
	assert.Empty(t, f.sms.sent)
	assert.Empty(t, f.mail.sent)
}

func TestForgotPasswordRejectsAdminEmail(t *testing.T) {
	f := newAuthFixture()

	_, err := f.svc.ForgotPassword(context.Background(), f.admin.Email)
	assert.ErrorIs(t, err, ErrAdminEmail)
}

func TestForgotThenResetViaPhone(t *testing.T) {
	f := newAuthFixture()
	input := validRegisterInput()
	user, _, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)

	result, err := f.svc.ForgotPassword(context.Background(), input.Email)
	require.NoError(t, err)
	require.True(t, result.AccountExists)
	assert.Equal(t, user.ID, result.UserID)

	code := lastSMSCode(t, f.sms)
	err = f.svc.ResetPassword(context.Background(), ResetPasswordInput{
		VerificationType: "phone",
		UserID:           strconv.Itoa(user.ID),
		OTP:              code,
		NewPassword:      "fresh-password",
	})
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), input.Email, "fresh-password")
	assert.NoError(t, err)
	_, err = f.svc.Login(context.Background(), input.Email, input.Password)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResetPasswordWrongOTP(t *testing.T) {
	f := newAuthFixture()
	input := validRegisterInput()
	user, _, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = f.svc.ForgotPassword(context.Background(), input.Email)
	require.NoError(t, err)

	err = f.svc.ResetPassword(context.Background(), ResetPasswordInput{
		VerificationType: "phone",
		UserID:           strconv.Itoa(user.ID),
		OTP:              "000000",
		NewPassword:      "fresh-password",
	})
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestResetPasswordInvalidVerificationType(t *testing.T) {
	f := newAuthFixture()

	err := f.svc.ResetPassword(context.Background(), ResetPasswordInput{
		VerificationType: "carrier-pigeon",
		OTP:              "123456",
		NewPassword:      "fresh-password",
	})
	assert.ErrorIs(t, err, ErrInvalidVerification)
}

func TestResendPhoneOTPUnknownAccount(t *testing.T) {
	f := newAuthFixture()

	err := f.svc.ResendPhoneOTP(context.Background(), "999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResendPhoneOTPPropagatesSendFailure(t *testing.T) {
	f := newAuthFixture()
	input := validRegisterInput()
	user, _, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)

	f.sms.fail = true
	err = f.svc.ResendPhoneOTP(context.Background(), strconv.Itoa(user.ID))
	assert.Error(t, err)
}

func TestCurrentUser(t *testing.T) {
	f := newAuthFixture()
	input := validRegisterInput()
	user, _, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)

	profile, err := f.svc.CurrentUser(context.Background(), token.Identity{
		Subject: strconv.Itoa(user.ID),
		Role:    types.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, input.Email, profile.Email)
	assert.Equal(t, input.PhoneNumber, profile.PhoneNumber)

	adminProfile, err := f.svc.CurrentUser(context.Background(), token.Identity{
		Subject: "admin_1700000000000",
		Role:    types.RoleAdmin,
		BuiltIn: true,
	})
	require.NoError(t, err)
	assert.Equal(t, f.admin.Email, adminProfile.Email)
	assert.Equal(t, types.RoleAdmin, adminProfile.Role)

	_, err = f.svc.CurrentUser(context.Background(), token.Identity{Subject: "999"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
