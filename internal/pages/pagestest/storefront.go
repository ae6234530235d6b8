// Package pagestest scripts the storefront login flow on a fake session.
package pagestest

import (
	"strings"
	"sync"

	"github.com/dgnsrekt/storefront_e2e/internal/config"
	"github.com/dgnsrekt/storefront_e2e/internal/pages"
	"github.com/dgnsrekt/storefront_e2e/internal/session"
	"github.com/dgnsrekt/storefront_e2e/internal/session/sessiontest"
)

// Storefront reacts to clicks and input on a sessiontest.Fake the way the
// real site does: sign-in opens the modal, Continue shows the OTP inputs,
// the correct OTP logs the user in and Logout signs them out.
type Storefront struct {
	Fake *sessiontest.Fake
	Data *config.TestData

	mu       sync.Mutex
	otp      string
	typed    []string
	loggedIn bool
	// ModalOnFirstClick controls whether the first sign-in click opens the
	// modal. When false only the second click does.
	ModalOnFirstClick bool
	signInClicks      int
}

// NewStorefront installs the logged-out home page on fake. expectedOTP is
// the code that completes the login.
func NewStorefront(fake *sessiontest.Fake, data *config.TestData, expectedOTP string) *Storefront {
	s := &Storefront{Fake: fake, Data: data, otp: expectedOTP, ModalOnFirstClick: true}
	s.installLoggedOut()
	return s
}

func (s *Storefront) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// TypedOTP returns the digits entered so far.
func (s *Storefront) TypedOTP() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.typed, "")
}

func (s *Storefront) installLoggedOut() {
	f := s.Fake
	for _, sel := range []string{pages.MyAccountMenu, pages.MyAccountDropdown, pages.MyProfileLink, pages.MyProfileSection, pages.LogoutButton} {
		f.RemoveElement(sel)
	}
	f.SetElement(pages.SignInButton, &sessiontest.Element{Displayed: true, Enabled: true, OnClick: s.onSignIn})
}

func (s *Storefront) onSignIn() {
	s.mu.Lock()
	s.signInClicks++
	open := s.ModalOnFirstClick || s.signInClicks > 1
	s.mu.Unlock()
	if !open {
		return
	}
	f := s.Fake
	f.SetElement(pages.ModalTitle, &sessiontest.Element{Text: s.Data.Modal.Title, Displayed: true, Enabled: true})
	f.SetElement(pages.MobileNumberInput, &sessiontest.Element{TagName: "input", Displayed: true, Enabled: true})
	f.SetElement(pages.SubmitLoginButton, &sessiontest.Element{TagName: "button", Displayed: true, Enabled: true, OnClick: s.onSubmit})
}

func (s *Storefront) onSubmit() {
	s.mu.Lock()
	s.typed = make([]string, pages.OTPLength)
	s.mu.Unlock()
	s.Fake.SetElement(pages.OTPInputs, &sessiontest.Element{
		TagName:   "input",
		Displayed: true,
		Enabled:   true,
		Count:     pages.OTPLength,
	})
	for i := 0; i < pages.OTPLength; i++ {
		idx := i
		s.Fake.SetElement(session.Nth(pages.OTPInputs, i), &sessiontest.Element{
			TagName:   "input",
			Displayed: true,
			Enabled:   true,
			OnInput:   func(v string) { s.onDigit(idx, v) },
		})
	}
}

func (s *Storefront) onDigit(i int, v string) {
	s.mu.Lock()
	s.typed[i] = v
	complete := strings.Join(s.typed, "") == s.otp
	if complete {
		s.loggedIn = true
	}
	s.mu.Unlock()
	if complete {
		s.installLoggedIn()
	}
}

func (s *Storefront) installLoggedIn() {
	f := s.Fake
	for _, sel := range []string{pages.SignInButton, pages.ModalTitle, pages.MobileNumberInput, pages.SubmitLoginButton} {
		f.RemoveElement(sel)
	}
	f.SetElement(pages.MyAccountMenu, &sessiontest.Element{Displayed: true, Enabled: true, OnClick: s.onAccountMenu})
	f.SetElement(pages.LogoutButton, &sessiontest.Element{Displayed: true, Enabled: true, OnClick: s.onLogout})
}

func (s *Storefront) onAccountMenu() {
	f := s.Fake
	f.SetElement(pages.MyAccountDropdown, &sessiontest.Element{Displayed: true, Enabled: true})
	f.SetElement(pages.MyProfileLink, &sessiontest.Element{Displayed: true, Enabled: true, OnClick: s.onProfile})
}

func (s *Storefront) onProfile() {
	f := s.Fake
	d := s.Data
	f.SetElement(pages.MyProfileSection, &sessiontest.Element{Displayed: true, Enabled: true})
	f.SetElement(pages.FirstNameInput, &sessiontest.Element{Value: d.ProfileDetails.FirstName, Displayed: true, Enabled: true})
	f.SetElement(pages.LastNameInput, &sessiontest.Element{Value: d.ProfileDetails.LastName, Displayed: true, Enabled: true})
	f.SetElement(pages.PhoneNumberInput, &sessiontest.Element{Value: d.Modal.RegisteredNumber, Displayed: true, Enabled: true})
	f.SetElement(pages.EmailInput, &sessiontest.Element{Value: d.ProfileDetails.RegisteredEmail, Displayed: true, Enabled: true})
}

func (s *Storefront) onLogout() {
	s.mu.Lock()
	s.loggedIn = false
	s.mu.Unlock()
	s.installLoggedOut()
}

// SampleData returns login fixture values used across tests.
func SampleData() *config.TestData {
	td := &config.TestData{}
	td.Modal.Title = "Login or Signup"
	td.Modal.RegisteredNumber = "9876543210"
	td.ProfileDetails.FirstName = "Asha"
	td.ProfileDetails.LastName = "Rao"
	td.ProfileDetails.RegisteredEmail = "asha.rao@example.com"
	return td
}
