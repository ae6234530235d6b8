package pages_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/storefront_e2e/internal/browser"
	"github.com/dgnsrekt/storefront_e2e/internal/errs"
	"github.com/dgnsrekt/storefront_e2e/internal/pages"
	"github.com/dgnsrekt/storefront_e2e/internal/pages/pagestest"
	"github.com/dgnsrekt/storefront_e2e/internal/scenario"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
	"github.com/dgnsrekt/storefront_e2e/internal/session/sessiontest"
)

type harness struct {
	fake   *sessiontest.Fake
	site   *pagestest.Storefront
	values *scenario.Context
	page   *pages.LoginPage
}

func fastTimings() pages.Timings {
	t := pages.DefaultTimings()
	t.ClickableTimeout = 50 * time.Millisecond
	t.SectionTimeout = 50 * time.Millisecond
	return t
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := sessiontest.New()
	data := pagestest.SampleData()
	site := pagestest.NewStorefront(fake, data, "482913")
	values := scenario.NewContext()
	b := browser.New(fake, browser.WithPollInterval(5*time.Millisecond))
	return &harness{fake: fake, site: site, values: values, page: pages.NewLoginPage(b, data, values, fastTimings())}
}

func (h *harness) openModalAndSubmit(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.page.ClickSignIn(ctx))
	require.NoError(t, h.page.VerifySignInModal(ctx))
	require.NoError(t, h.page.EnterMobileNumber(ctx))
	require.NoError(t, h.page.ClickSubmit(ctx))
}

func TestLoginFlowWithOTP(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.openModalAndSubmit(t)
	mobile, ok := h.fake.Element(pages.MobileNumberInput)
	require.True(t, ok)
	assert.Equal(t, "9876543210", mobile.Value)

	h.values.Set(scenario.KeyOTP, "482913")
	require.NoError(t, h.page.EnterOTP(ctx))
	assert.Equal(t, "482913", h.site.TypedOTP())
	assert.True(t, h.site.LoggedIn())

	loggedIn, err := h.page.IsLoggedIn(ctx)
	require.NoError(t, err)
	assert.True(t, loggedIn)
}

func TestVerifySignInModalRetriesClickOnce(t *testing.T) {
	h := newHarness(t)
	h.site.ModalOnFirstClick = false
	ctx := context.Background()

	require.NoError(t, h.page.ClickSignIn(ctx))
	require.NoError(t, h.page.VerifySignInModal(ctx))
	assert.Equal(t, 2, h.fake.Calls("Click"))
	assert.Equal(t, 5*time.Second, h.fake.Paused())
}

func TestVerifySignInModalFailsWhenModalNeverOpens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.SetElement(pages.SignInButton, &sessiontest.Element{Displayed: true, Enabled: true})

	require.NoError(t, h.page.ClickSignIn(ctx))
	err := h.page.VerifySignInModal(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign-in modal did not appear after retry")
}

func TestVerifySignInModalChecksTitle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.page.ClickSignIn(ctx))
	h.fake.SetElement(pages.ModalTitle, &sessiontest.Element{Text: "Something else", Displayed: true})

	err := h.page.VerifySignInModal(ctx)
	assert.True(t, errs.HasCode(err, errs.CodeValidation))
}

func TestClickSubmitFailsWhenDisabled(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.page.ClickSignIn(ctx))
	h.fake.SetElement(pages.SubmitLoginButton, &sessiontest.Element{Displayed: true})

	err := h.page.ClickSubmit(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "continue button is disabled")
}

func TestEnterOTPValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("missing from context", func(t *testing.T) {
		h := newHarness(t)
		h.openModalAndSubmit(t)
		err := h.page.EnterOTP(ctx)
		assert.True(t, errs.HasCode(err, errs.CodeValidation))
	})

	t.Run("wrong length", func(t *testing.T) {
		h := newHarness(t)
		h.openModalAndSubmit(t)
		h.values.Set(scenario.KeyOTP, "12345")
		h.fake.ResetCalls()
		assert.Error(t, h.page.EnterOTP(ctx))
		assert.Equal(t, 0, h.fake.Calls("Pause"))
		assert.Equal(t, 0, h.fake.Calls("SetValue"))
	})

	t.Run("incomplete inputs", func(t *testing.T) {
		h := newHarness(t)
		h.openModalAndSubmit(t)
		h.fake.SetElement(pages.OTPInputs, &sessiontest.Element{Displayed: true, Enabled: true, Count: 4})
		h.values.Set(scenario.KeyOTP, "482913")
		err := h.page.EnterOTP(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "found 4")
	})
}

func TestHandleRandomModalsClosesVisibleAlerts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.fake.SetElement(pages.CloseOfferAlertButtons, &sessiontest.Element{Displayed: true, Enabled: true, Count: 2})
	hidden := session.Nth(pages.CloseOfferAlertButtons, 1)
	h.fake.SetElement(hidden, &sessiontest.Element{Displayed: false, Enabled: true})
	h.fake.SetElement(pages.NotificationsBanner, &sessiontest.Element{Displayed: true})
	h.fake.SetElement(pages.DontAllowNotifications, &sessiontest.Element{Displayed: true, Enabled: true})

	h.page.HandleRandomModals(ctx)
	assert.Equal(t, 2, h.fake.Calls("Click"))
	assert.Equal(t, 3*time.Second, h.fake.Paused())
}

func TestHandleRandomModalsIgnoresErrors(t *testing.T) {
	h := newHarness(t)
	h.fake.SetElement(pages.CloseOfferAlertButtons, &sessiontest.Element{Displayed: true, Enabled: false})

	assert.NotPanics(t, func() { h.page.HandleRandomModals(context.Background()) })
}

func TestProfileAndLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.openModalAndSubmit(t)
	h.values.Set(scenario.KeyOTP, "482913")
	require.NoError(t, h.page.EnterOTP(ctx))

	require.NoError(t, h.page.NavigateToMyProfile(ctx))
	first, err := h.page.ProfileFirstName(ctx)
	require.NoError(t, err)
	last, err := h.page.ProfileLastName(ctx)
	require.NoError(t, err)
	phone, err := h.page.ProfilePhone(ctx)
	require.NoError(t, err)
	email, err := h.page.ProfileEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Asha", "Rao", "9876543210", "asha.rao@example.com"}, []string{first, last, phone, email})

	require.NoError(t, h.page.ClickLogout(ctx))
	out, err := h.page.IsLoggedOut(ctx)
	require.NoError(t, err)
	assert.True(t, out)
	assert.False(t, h.site.LoggedIn())
}

func TestNavigateToMyProfileTimesOutWithoutSection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.SetElement(pages.MyAccountMenu, &sessiontest.Element{Displayed: true, Enabled: true})
	h.fake.SetElement(pages.MyAccountDropdown, &sessiontest.Element{Displayed: true})
	h.fake.SetElement(pages.MyProfileLink, &sessiontest.Element{Displayed: true, Enabled: true})

	err := h.page.NavigateToMyProfile(ctx)
	require.Error(t, err)
	assert.True(t, browser.IsTimeout(err))
}
