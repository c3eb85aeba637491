package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/coursemarket/server/internal/dto"
	"github.com/coursemarket/server/internal/entity"
	"github.com/coursemarket/server/pkg/apperror"
	"github.com/coursemarket/server/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newTestAuthService(repo *fakeUserRepo, mail *fakeMailer) *authService {
	return &authService{
		repo:      repo,
		mail:      mail,
		secret:    testSecret,
		tokenTTL:  24 * time.Hour,
		resetBase: "http://localhost:3000/reset-password",
	}
}

func seedUser(t *testing.T, repo *fakeUserRepo, name, email, password, roleName string) *entity.User {
	t.Helper()

	role, err := repo.FindRoleByName(context.Background(), roleName)
	require.NoError(t, err)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	roleID := role.ID
	user := &entity.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		RoleID:       &roleID,
		Role:         *role,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestSignup(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, &fakeMailer{})
	ctx := context.Background()

	input := dto.SignupInput{
		Name:            "alice",
		Email:           "alice@test.dev",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            entity.RoleStudent,
	}

	user, err := svc.Signup(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStudent, user.Role.Name)
	assert.True(t, user.IsActive)
	assert.Empty(t, user.PasswordHash)

	t.Run("duplicate email conflicts and creates nothing", func(t *testing.T) {
		before := len(repo.users)

		dup := input
		dup.Name = "alice2"
		_, err := svc.Signup(ctx, dup)
		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.Equal(t, before, len(repo.users))
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		dup := input
		dup.Email = "other@test.dev"
		_, err := svc.Signup(ctx, dup)
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		bad := input
		bad.Name = "bob"
		bad.Email = "bob@test.dev"
		bad.Role = "superuser"
		_, err := svc.Signup(ctx, bad)
		assert.ErrorIs(t, err, apperror.ErrBadRequest)
	})
}

func TestLoginRoleScopedLookup(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, &fakeMailer{})
	ctx := context.Background()

	seedUser(t, repo, "amy", "amy@test.dev", "correct-horse", entity.RoleStudent)

	t.Run("wrong role is indistinguishable from wrong password", func(t *testing.T) {
		_, wrongRoleErr := svc.Login(ctx, dto.LoginInput{
			Email: "amy@test.dev", Password: "correct-horse", Role: entity.RoleTeacher,
		})
		_, wrongPassErr := svc.Login(ctx, dto.LoginInput{
			Email: "amy@test.dev", Password: "nope", Role: entity.RoleStudent,
		})

		assert.ErrorIs(t, wrongRoleErr, apperror.ErrUnauthorized)
		assert.ErrorIs(t, wrongPassErr, apperror.ErrUnauthorized)
		assert.Equal(t, wrongRoleErr.Error(), wrongPassErr.Error())
	})

	t.Run("token carries the stored role", func(t *testing.T) {
		res, err := svc.Login(ctx, dto.LoginInput{
			Email: "amy@test.dev", Password: "correct-horse", Role: entity.RoleStudent,
		})
		require.NoError(t, err)
		require.NotEmpty(t, res.Token)

		claims, err := token.Parse(testSecret, res.Token)
		require.NoError(t, err)
		assert.Equal(t, entity.RoleStudent, claims.Role)
		assert.Equal(t, res.User.ID.String(), claims.Subject)
		assert.Empty(t, claims.Purpose)
		assert.Empty(t, res.User.PasswordHash)
	})

	t.Run("deactivated account cannot log in", func(t *testing.T) {
		user := seedUser(t, repo, "dora", "dora@test.dev", "pw123456", entity.RoleStudent)
		user.IsActive = false
		require.NoError(t, repo.Update(ctx, user))

		_, err := svc.Login(ctx, dto.LoginInput{
			Email: "dora@test.dev", Password: "pw123456", Role: entity.RoleStudent,
		})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})
}

func TestGoogleLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, &fakeMailer{})
	svc.verifyGoogleToken = func(ctx context.Context, idToken string) (*googleIdentity, error) {
		return &googleIdentity{
			Subject: "google-sub-1",
			Email:   "gina@test.dev",
			Name:    "gina",
			Picture: "https://pic.test/gina.png",
		}, nil
	}
	ctx := context.Background()

	res, err := svc.GoogleLogin(ctx, "opaque-token")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStudent, res.User.Role.Name)
	assert.True(t, res.User.IsVerified)
	require.NotNil(t, res.User.GoogleID)
	assert.Equal(t, "google-sub-1", *res.User.GoogleID)

	// Second login finds the same account instead of creating another.
	again, err := svc.GoogleLogin(ctx, "opaque-token")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID)
	assert.Len(t, repo.users, 1)
}

func TestPasswordResetFlow(t *testing.T) {
	repo := newFakeUserRepo()
	mail := &fakeMailer{}
	svc := newTestAuthService(repo, mail)
	ctx := context.Background()

	user := seedUser(t, repo, "amy", "amy@test.dev", "old-password", entity.RoleStudent)

	require.NoError(t, svc.ForgotPassword(ctx, "amy@test.dev"))
	require.Len(t, mail.sent, 1)

	stored, err := repo.FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	require.NotNil(t, stored.ResetTokenHash)

	resetURL, err := url.Parse(mail.urls[0])
	require.NoError(t, err)
	resetToken := resetURL.Query().Get("token")
	require.NotEmpty(t, resetToken)

	t.Run("short password rejected", func(t *testing.T) {
		err := svc.ResetPassword(ctx, resetToken, "tiny")
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})

	t.Run("session token cannot reset a password", func(t *testing.T) {
		sessionToken, _, err := token.Sign(testSecret, user.ID.String(), entity.RoleStudent, "", time.Hour)
		require.NoError(t, err)

		err = svc.ResetPassword(ctx, sessionToken, "new-password")
		assert.ErrorIs(t, err, apperror.ErrBadRequest)
	})

	t.Run("token is single use", func(t *testing.T) {
		require.NoError(t, svc.ResetPassword(ctx, resetToken, "new-password"))

		consumed, err := repo.FindByID(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Nil(t, consumed.ResetTokenHash)

		_, err = svc.Login(ctx, dto.LoginInput{
			Email: "amy@test.dev", Password: "new-password", Role: entity.RoleStudent,
		})
		assert.NoError(t, err)

		err = svc.ResetPassword(ctx, resetToken, "another-password")
		assert.ErrorIs(t, err, apperror.ErrBadRequest)
	})

	t.Run("vanished user yields not found", func(t *testing.T) {
		ghost := seedUser(t, repo, "ghost", "ghost@test.dev", "pw123456", entity.RoleStudent)
		require.NoError(t, svc.ForgotPassword(ctx, "ghost@test.dev"))

		ghostURL, err := url.Parse(mail.urls[len(mail.urls)-1])
		require.NoError(t, err)
		ghostToken := ghostURL.Query().Get("token")

		require.NoError(t, repo.Delete(ctx, ghost.ID.String()))

		err = svc.ResetPassword(ctx, ghostToken, "new-password")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	repo := newFakeUserRepo()
	mail := &fakeMailer{}
	svc := newTestAuthService(repo, mail)

	err := svc.ForgotPassword(context.Background(), "nobody@test.dev")
	assert.NoError(t, err)
	assert.Empty(t, mail.sent)
}
