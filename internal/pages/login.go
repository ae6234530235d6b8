// Package pages holds page objects for the storefront.
package pages

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgnsrekt/storefront_e2e/internal/browser"
	"github.com/dgnsrekt/storefront_e2e/internal/config"
	"github.com/dgnsrekt/storefront_e2e/internal/errs"
	"github.com/dgnsrekt/storefront_e2e/internal/scenario"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
)

// Login page selectors.
const (
	SignInButton           = `//a[contains(@class,"header_account")]`
	ModalTitle             = `//div[@class="modal-content"]//h5`
	MobileNumberInput      = `//input[@name="mobile_no"]`
	SubmitLoginButton      = `//div[contains(@class,"login")]/button[@type="submit"]`
	OTPInputs              = `//input[contains(@name,"otp_")]`
	CloseOfferAlertButtons = `//div[@data-id="CONTAINER"]//button[@data-id="CLOSE"]`
	NotificationsBanner    = `//div[@id="desktopBannerWrapped"]`
	DontAllowNotifications = `//button[@id="moe-dontallow_button"]`
	MyAccountMenu          = `//a[contains(@class,"My_Account")]`
	MyAccountDropdown      = `//div[contains(@class,"dropdown-menu show")]`
	MyProfileLink          = `//a[@href="/my-account"]`
	MyProfileSection       = `//a[@href="/my-account"]/parent::li[contains(@class,"account_active")]`
	FirstNameInput         = `//label[text()="First Name"]/following-sibling::input`
	LastNameInput          = `//label[text()="Last Name"]/following-sibling::input`
	PhoneNumberInput       = `//label[text()="Phone No."]/following-sibling::input`
	EmailInput             = `//label[text()="Email"]/following-sibling::input`
	LogoutButton           = `//a[contains(@class,"account_loguot-btn")]`
)

// OTPLength is the number of digits and of OTP inputs on the page.
const OTPLength = 6

// Timings are the fixed pauses and wait bounds used by the login page.
type Timings struct {
	ModalSettle      time.Duration
	ModalRetry       time.Duration
	OTPSettle        time.Duration
	AlertSettle      time.Duration
	LogoutSettle     time.Duration
	ClickableTimeout time.Duration
	SectionTimeout   time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		ModalSettle:      3 * time.Second,
		ModalRetry:       2 * time.Second,
		OTPSettle:        2 * time.Second,
		AlertSettle:      3 * time.Second,
		LogoutSettle:     3 * time.Second,
		ClickableTimeout: 5 * time.Second,
		SectionTimeout:   10 * time.Second,
	}
}

// LoginPage drives the sign-in modal, the OTP form and the account menu.
type LoginPage struct {
	b       *browser.Browser
	el      *browser.Elements
	data    *config.TestData
	values  *scenario.Context
	timings Timings
}

func NewLoginPage(b *browser.Browser, data *config.TestData, values *scenario.Context, timings Timings) *LoginPage {
	return &LoginPage{b: b, el: b.Elements(), data: data, values: values, timings: timings}
}

func (p *LoginPage) ClickSignIn(ctx context.Context) error {
	if err := p.el.WaitForClickable(ctx, SignInButton, p.timings.ClickableTimeout, "Sign in button", false); err != nil {
		return err
	}
	return p.el.Click(ctx, SignInButton, "Sign in button")
}

// VerifySignInModal checks that the sign-in modal opened with the expected
// title, clicking the sign-in button once more if it did not.
func (p *LoginPage) VerifySignInModal(ctx context.Context) error {
	if err := p.b.Wait(ctx, p.timings.ModalSettle); err != nil {
		return err
	}
	shown, err := p.el.IsDisplayed(ctx, ModalTitle)
	if err != nil {
		return err
	}
	if !shown {
		slog.Warn("sign-in modal not found, retrying click on sign-in button")
		if err := p.ClickSignIn(ctx); err != nil {
			return err
		}
		if err := p.b.Wait(ctx, p.timings.ModalRetry); err != nil {
			return err
		}
		if shown, err = p.el.IsDisplayed(ctx, ModalTitle); err != nil {
			return err
		}
		if !shown {
			return errs.New(errs.CodeValidation, "sign-in modal did not appear after retry")
		}
	}

	title, err := p.el.GetText(ctx, ModalTitle)
	if err != nil {
		return err
	}
	if title != p.data.Modal.Title {
		return errs.New(errs.CodeValidation, fmt.Sprintf("modal title = %q, want %q", title, p.data.Modal.Title))
	}
	slog.Info("modal title matches expected data", "title", title)
	return nil
}

func (p *LoginPage) EnterMobileNumber(ctx context.Context) error {
	return p.el.SendText(ctx, MobileNumberInput, p.data.Modal.RegisteredNumber)
}

// ClickSubmit clicks Continue, failing when the button is disabled.
func (p *LoginPage) ClickSubmit(ctx context.Context) error {
	enabled, err := p.el.IsEnabled(ctx, SubmitLoginButton)
	if err != nil {
		return err
	}
	if !enabled {
		return errs.New(errs.CodeValidation, "continue button is disabled even after entering a registered mobile number")
	}
	return p.el.Click(ctx, SubmitLoginButton, "Continue button")
}

// EnterOTP types the OTP from the scenario context one digit per input.
func (p *LoginPage) EnterOTP(ctx context.Context) error {
	otp, _ := p.values.GetString(scenario.KeyOTP)
	if len(otp) != OTPLength {
		return errs.New(errs.CodeValidation, "OTP is invalid or not available in context")
	}
	if err := p.b.Wait(ctx, p.timings.OTPSettle); err != nil {
		return err
	}

	n, err := p.el.Count(ctx, OTPInputs)
	if err != nil {
		return err
	}
	if n != OTPLength {
		return errs.New(errs.CodeValidation, fmt.Sprintf("OTP input fields are not available or incomplete: found %d", n))
	}
	for i := 0; i < OTPLength; i++ {
		if err := p.el.SendText(ctx, session.Nth(OTPInputs, i), otp[i:i+1]); err != nil {
			return err
		}
	}
	slog.Info("OTP entered")
	return nil
}

// HandleRandomModals closes promotional pop-ups and declines the
// notifications banner. Failures are logged and ignored.
func (p *LoginPage) HandleRandomModals(ctx context.Context) {
	if err := p.closeOfferAlerts(ctx); err != nil {
		slog.Warn("random offer alerts not handled, continuing", "error", err)
	}
	if err := p.declineNotifications(ctx); err != nil {
		slog.Warn("notifications alert not handled, continuing", "error", err)
	}
}

func (p *LoginPage) closeOfferAlerts(ctx context.Context) error {
	n, err := p.el.Count(ctx, CloseOfferAlertButtons)
	if err != nil {
		return err
	}
	slog.Debug("random offer alerts found", "count", n)
	for i := 0; i < n; i++ {
		btn := session.Nth(CloseOfferAlertButtons, i)
		shown, err := p.el.IsDisplayed(ctx, btn)
		if err != nil {
			return err
		}
		if !shown {
			continue
		}
		if err := p.el.Click(ctx, btn, "close button"); err != nil {
			return err
		}
		if err := p.b.Wait(ctx, p.timings.AlertSettle); err != nil {
			return err
		}
	}
	return nil
}

func (p *LoginPage) declineNotifications(ctx context.Context) error {
	shown, err := p.el.IsDisplayed(ctx, NotificationsBanner)
	if err != nil || !shown {
		return err
	}
	shown, err = p.el.IsDisplayed(ctx, DontAllowNotifications)
	if err != nil || !shown {
		return err
	}
	slog.Info("notifications banner displayed, declining")
	return p.el.Click(ctx, DontAllowNotifications, "Don't Allow button")
}

func (p *LoginPage) NavigateToMyProfile(ctx context.Context) error {
	if err := p.el.Click(ctx, MyAccountMenu, "My Account menu"); err != nil {
		return err
	}
	if err := p.el.MouseHover(ctx, MyAccountDropdown, "My Account dropdown list"); err != nil {
		return err
	}
	if err := p.el.WaitForClickable(ctx, MyProfileLink, p.timings.ClickableTimeout, "My Profile link", false); err != nil {
		return err
	}
	if err := p.el.Click(ctx, MyProfileLink, "My Profile link"); err != nil {
		return err
	}
	return p.el.WaitForDisplayed(ctx, MyProfileSection, p.timings.SectionTimeout, "My Profile Details section", false)
}

func (p *LoginPage) ClickLogout(ctx context.Context) error {
	if err := p.el.ScrollIntoView(ctx, LogoutButton); err != nil {
		return err
	}
	return p.el.Click(ctx, LogoutButton, "Logout button")
}

func (p *LoginPage) ProfileFirstName(ctx context.Context) (string, error) {
	return p.el.GetValue(ctx, FirstNameInput)
}

func (p *LoginPage) ProfileLastName(ctx context.Context) (string, error) {
	return p.el.GetValue(ctx, LastNameInput)
}

func (p *LoginPage) ProfilePhone(ctx context.Context) (string, error) {
	return p.el.GetValue(ctx, PhoneNumberInput)
}

func (p *LoginPage) ProfileEmail(ctx context.Context) (string, error) {
	return p.el.GetValue(ctx, EmailInput)
}

// IsLoggedIn reports whether the My Account menu is present.
func (p *LoginPage) IsLoggedIn(ctx context.Context) (bool, error) {
	return p.el.IsExisting(ctx, MyAccountMenu)
}

// IsLoggedOut waits for the logout to settle, then reports whether the
// sign-in button is back and the My Account menu is gone.
func (p *LoginPage) IsLoggedOut(ctx context.Context) (bool, error) {
	if err := p.b.Wait(ctx, p.timings.LogoutSettle); err != nil {
		return false, err
	}
	signIn, err := p.el.IsExisting(ctx, SignInButton)
	if err != nil || !signIn {
		return false, err
	}
	account, err := p.el.IsExisting(ctx, MyAccountMenu)
	if err != nil {
		return false, err
	}
	return !account, nil
}
