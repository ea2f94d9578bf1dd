package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/auth"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/infrastructure/memory"
)

type stubSocial struct {
	identity *auth.SocialIdentity
	err      error
}

func (s stubSocial) Identify(context.Context, string, string) (*auth.SocialIdentity, error) {
	return s.identity, s.err
}

func newUserService(t *testing.T, social SocialProvider) (*UserService, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("a", "r", time.Hour, time.Hour)
	return NewUserService(memory.NewStore(), tokens, social, zap.NewNop()), tokens
}

func registration(email string) RegisterInput {
	return RegisterInput{
		Email: email, Username: "", Password: "s3cret-pass", Password2: "s3cret-pass",
		FirstName: "Ada", LastName: "Lovelace",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens := newUserService(t, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, registration("Ada@Shop.io"))
	require.NoError(t, err)
	assert.Equal(t, "ada@shop.io", res.User.Email)
	assert.Equal(t, "ada@shop.io", res.User.Username)
	assert.Equal(t, domain.RoleUser, res.User.Role)

	p, err := tokens.ParseAccess(res.Tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, p.UserID)

	logged, err := svc.Login(ctx, "ada@shop.io", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, logged.User.ID)

	_, err = svc.Login(ctx, "ada@shop.io", "wrong-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@shop.io", "s3cret-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegister_Rejections(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, registration("ada@shop.io"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registration("ada@shop.io"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	in := registration("bob@shop.io")
	in.Password2 = "different-pass"
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = registration("not-an-email")
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = registration("carl@shop.io")
	in.Password, in.Password2 = "short", "short"
	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegisterAdmin(t *testing.T) {
	svc, _ := newUserService(t, nil)
	u, err := svc.RegisterAdmin(context.Background(), registration("boss@shop.io"))
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.False(t, u.IsSuperuser)
}

func TestRefresh(t *testing.T) {
	svc, tokens := newUserService(t, nil)
	ctx := context.Background()
	res, err := svc.Register(ctx, registration("ada@shop.io"))
	require.NoError(t, err)

	access, exp, err := svc.Refresh(ctx, res.Tokens.Refresh)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
	_, err = tokens.ParseAccess(access)
	assert.NoError(t, err)

	_, _, err = svc.Refresh(ctx, res.Tokens.Access)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, svc.DeleteUser(ctx, res.User.ID))
	_, _, err = svc.Refresh(ctx, res.Tokens.Refresh)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSocialLogin_FindsOrCreates(t *testing.T) {
	svc, _ := newUserService(t, stubSocial{identity: &auth.SocialIdentity{
		Email: "g@shop.io", GivenName: "Gina", FamilyName: "Lopez",
	}})
	ctx := context.Background()

	first, err := svc.SocialLogin(ctx, "code", "")
	require.NoError(t, err)
	assert.Equal(t, "Gina", first.User.FirstName)
	assert.Empty(t, first.User.PasswordHash)

	second, err := svc.SocialLogin(ctx, "code", "")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	// social-only accounts cannot use password login
	_, err = svc.Login(ctx, "g@shop.io", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSocialLogin_ProviderErrors(t *testing.T) {
	svc, _ := newUserService(t, stubSocial{err: domain.ErrInvalidCredentials})
	_, err := svc.SocialLogin(context.Background(), "bad", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	unconfigured, _ := newUserService(t, nil)
	_, err = unconfigured.SocialLogin(context.Background(), "code", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()
	res, err := svc.Register(ctx, registration("ada@shop.io"))
	require.NoError(t, err)

	bio, name := "math", "ada"
	u, err := svc.UpdateUser(ctx, res.User.ID, ProfileInput{Bio: &bio, Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "math", u.Bio)
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, "Ada", u.FirstName)

	bad := domain.Role("root")
	_, err = svc.UpdateUser(ctx, res.User.ID, ProfileInput{Role: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestEnsureInitialAdmin(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()
	in := RegisterInput{Email: "root@shop.io", Username: "root", Password: "initial-pass"}

	u, created, err := svc.EnsureInitialAdmin(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, u.IsAdmin())
	assert.True(t, u.IsSuperuser)

	in.Password = "rotated-pass"
	again, created, err := svc.EnsureInitialAdmin(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)

	_, err = svc.Login(ctx, "root@shop.io", "rotated-pass")
	assert.NoError(t, err)
}

func TestEnsureInitialAdmin_PromotesExistingUser(t *testing.T) {
	svc, _ := newUserService(t, nil)
	ctx := context.Background()
	res, err := svc.Register(ctx, registration("ada@shop.io"))
	require.NoError(t, err)

	u, created, err := svc.EnsureInitialAdmin(ctx, RegisterInput{Email: "ada@shop.io", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, res.User.ID, u.ID)
	assert.True(t, u.IsSuperuser)
}
