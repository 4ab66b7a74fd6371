package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/config"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/notify"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/otp"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/store"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/token"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByEmailOrPhone(ctx context.Context, email, phone string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error
	List(ctx context.Context) ([]types.User, error)
}

// DeliveryReport records, per channel, whether the OTP actually went
// out. Delivery is best-effort: a failed send is logged and reported
// but never aborts the enclosing flow.
type DeliveryReport struct {
	PhoneDelivered bool `json:"phone_delivered"`
	EmailDelivered bool `json:"email_delivered"`
}

// Profile is the public identity shape returned to clients. The ID is
// a string so the built-in administrator's synthetic identity and
// stored account ids share one representation.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phonenumber,omitempty"`
	Role        string `json:"role"`
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	PhoneNumber string
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Profile      Profile
}

type ForgotPasswordResult struct {
	// AccountExists is internal only: handlers answer with the same
	// generic message either way.
	AccountExists bool
	UserID        int
	Delivery      DeliveryReport
}

type ResetPasswordInput struct {
	VerificationType string
	UserID           string
	Email            string
	OTP              string
	NewPassword      string
}

// AuthService is the state machine behind registration, login, token
// refresh and password recovery. It owns the admin short-circuit: the
// built-in administrator is matched against config before any storage
// lookup and never touches the account store.
type AuthService struct {
	users    UserRepository
	phoneOTP *otp.ChannelService
	emailOTP *otp.ChannelService
	sms      notify.SMSSender
	mail     notify.MailSender
	tokens   *token.Service
	admin    config.AdminConfig
}

func NewAuthService(
	users UserRepository,
	phoneOTP, emailOTP *otp.ChannelService,
	sms notify.SMSSender,
	mail notify.MailSender,
	tokens *token.Service,
	admin config.AdminConfig,
) *AuthService {
	return &AuthService{
		users:    users,
		phoneOTP: phoneOTP,
		emailOTP: emailOTP,
		sms:      sms,
		mail:     mail,
		tokens:   tokens,
		admin:    admin,
	}
}

// Register creates a new account with role=user and sends a fresh OTP
// over both channels. Registration succeeds even when delivery fails;
// the report tells the caller what actually went out.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (types.User, DeliveryReport, error) {
	if input.Email == s.admin.Email {
		return types.User{}, DeliveryReport{}, ErrAdminEmail
	}

	_, err := s.users.GetByEmailOrPhone(ctx, input.Email, input.PhoneNumber)
	if err == nil {
		return types.User{}, DeliveryReport{}, ErrAccountExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, DeliveryReport{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, DeliveryReport{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		Username:     input.Username,
		Email:        input.Email,
		PhoneNumber:  input.PhoneNumber,
		Role:         types.RoleUser,
		PasswordHash: string(hashed),
	})
	if err != nil {
		return types.User{}, DeliveryReport{}, err
	}

	report, err := s.sendBothOTPs(ctx, user)
	if err != nil {
		return types.User{}, DeliveryReport{}, err
	}
	return user, report, nil
}

// sendBothOTPs generates codes on both channels and attempts delivery.
// Generation failures are real errors; delivery failures only flip the
// report flags.
func (s *AuthService) sendBothOTPs(ctx context.Context, user types.User) (DeliveryReport, error) {
	phoneCode, err := s.phoneOTP.Generate(ctx, strconv.Itoa(user.ID))
	if err != nil {
		return DeliveryReport{}, err
	}
	emailCode, err := s.emailOTP.Generate(ctx, user.Email)
	if err != nil {
		return DeliveryReport{}, err
	}

	report := DeliveryReport{PhoneDelivered: true, EmailDelivered: true}
	if err := s.sms.Send(ctx, "+"+user.PhoneNumber, notify.OTPSMSBody(phoneCode)); err != nil {
		slog.Error("failed to send phone otp", slog.Int("user_id", user.ID), slog.String("error", err.Error()))
		report.PhoneDelivered = false
	}
	if err := s.mail.Send(ctx, user.Email, notify.OTPMailSubject, notify.OTPMailBody(emailCode)); err != nil {
		slog.Error("failed to send email otp", slog.Int("user_id", user.ID), slog.String("error", err.Error()))
		report.EmailDelivered = false
	}
	return report, nil
}

// VerifyPhoneOTP checks the code generated for the account id. The
// result is advisory: nothing is persisted and login never depends on
// it.
func (s *AuthService) VerifyPhoneOTP(ctx context.Context, userID, code string) (bool, error) {
	return s.phoneOTP.Verify(ctx, userID, code)
}

// VerifyEmailOTP checks the code generated for the email address.
func (s *AuthService) VerifyEmailOTP(ctx context.Context, email, code string) (bool, error) {
	return s.emailOTP.Verify(ctx, email, code)
}

// ResendPhoneOTP regenerates and redelivers the phone code. Unlike
// registration, a delivery failure here is surfaced to the caller.
func (s *AuthService) ResendPhoneOTP(ctx context.Context, userID string) error {
	id, err := strconv.Atoi(userID)
	if err != nil {
		return store.ErrNotFound
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	code, err := s.phoneOTP.Generate(ctx, userID)
	if err != nil {
		return err
	}
	return s.sms.Send(ctx, "+"+user.PhoneNumber, notify.OTPSMSBody(code))
}

// ResendEmailOTP regenerates and redelivers the email code.
func (s *AuthService) ResendEmailOTP(ctx context.Context, email string) error {
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		return err
	}

	code, err := s.emailOTP.Generate(ctx, email)
	if err != nil {
		return err
	}
	return s.mail.Send(ctx, email, notify.OTPMailSubject, notify.OTPMailBody(code))
}

// Login authenticates either the built-in administrator or a stored
// account. The admin check runs first and short-circuits storage
// entirely: matching credentials synthesize a fresh admin identity.
// All other failures collapse into ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if email == s.admin.Email && password == s.admin.Password {
		subject := s.tokens.NewAdminSubject()
		accessToken, err := s.tokens.IssueAccess(subject, types.RoleAdmin)
		if err != nil {
			return LoginResult{}, err
		}
		refreshToken, err := s.tokens.IssueRefresh(subject)
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			Profile:      s.adminProfile(subject),
		}, nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	subject := strconv.Itoa(user.ID)
	accessToken, err := s.tokens.IssueAccess(subject, user.Role)
	if err != nil {
		return LoginResult{}, err
	}
	refreshToken, err := s.tokens.IssueRefresh(subject)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile: Profile{
			ID:       subject,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
	}, nil
}

// Refresh validates a refresh token and mints a new access token. The
// built-in administrator is recognized from the identity alone and
// needs no lookup; stored accounts are reloaded so a role change since
// login takes effect here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	identity, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}

	if identity.BuiltIn {
		return s.tokens.IssueAccess(identity.Subject, types.RoleAdmin)
	}

	id, err := strconv.Atoi(identity.Subject)
	if err != nil {
		return "", token.ErrTokenInvalid
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.tokens.IssueAccess(identity.Subject, user.Role)
}

// ForgotPassword starts recovery. The admin email is rejected outright;
// unknown emails return a result with AccountExists=false and generate
// no OTP, so responses stay indistinguishable from the known-email case.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (ForgotPasswordResult, error) {
	if email == s.admin.Email {
		return ForgotPasswordResult{}, ErrAdminEmail
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ForgotPasswordResult{}, nil
		}
		return ForgotPasswordResult{}, err
	}

	report, err := s.sendBothOTPs(ctx, user)
	if err != nil {
		return ForgotPasswordResult{}, err
	}
	return ForgotPasswordResult{
		AccountExists: true,
		UserID:        user.ID,
		Delivery:      report,
	}, nil
}

// ResetPassword verifies proof from either channel and stores the new
// password hash.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	var valid bool
	var err error
	switch {
	case input.VerificationType == "phone" && input.UserID != "":
		valid, err = s.phoneOTP.Verify(ctx, input.UserID, input.OTP)
	case input.VerificationType == "email" && input.Email != "":
		valid, err = s.emailOTP.Verify(ctx, input.Email, input.OTP)
	default:
		return ErrInvalidVerification
	}
	if err != nil {
		return err
	}
	if !valid {
		return ErrInvalidOTP
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if input.UserID != "" {
		id, err := strconv.Atoi(input.UserID)
		if err != nil {
			return store.ErrNotFound
		}
		return s.users.UpdatePassword(ctx, id, string(hashed))
	}
	return s.users.UpdatePasswordByEmail(ctx, input.Email, string(hashed))
}

// CurrentUser resolves an already-verified identity to a profile. The
// built-in administrator is synthesized from config without a lookup.
func (s *AuthService) CurrentUser(ctx context.Context, identity token.Identity) (Profile, error) {
	if identity.BuiltIn {
		return s.adminProfile(identity.Subject), nil
	}

	id, err := strconv.Atoi(identity.Subject)
	if err != nil {
		return Profile{}, store.ErrNotFound
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		ID:          identity.Subject,
		Username:    user.Username,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
	}, nil
}

// ListUsers returns every stored account. Password hashes never leave
// the server; the JSON shape excludes them.
func (s *AuthService) ListUsers(ctx context.Context) ([]types.User, error) {
	return s.users.List(ctx)
}

func (s *AuthService) adminProfile(subject string) Profile {
	return Profile{
		ID:       subject,
		Username: s.admin.Username,
		Email:    s.admin.Email,
		Role:     types.RoleAdmin,
	}
}
