package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/storefront_e2e/internal/session"
	"github.com/dgnsrekt/storefront_e2e/internal/session/sessiontest"
)

const (
	btnSubmit  = `//button[@type="submit"]`
	txtMobile  = `//input[@name="mobile_no"]`
	ddlCountry = `//select[@name="country"]`
)

func newTestElements() (*Elements, *sessiontest.Fake) {
	fake := sessiontest.New()
	return NewElements(fake, 5*time.Millisecond), fake
}

func TestQueriesTreatMissingElementAsFalse(t *testing.T) {
	el, _ := newTestElements()
	ctx := context.Background()

	for name, q := range map[string]func(context.Context, string) (bool, error){
		"IsDisplayed": el.IsDisplayed,
		"IsEnabled":   el.IsEnabled,
		"IsSelected":  el.IsSelected,
		"IsExisting":  el.IsExisting,
		"IsClickable": el.IsClickable,
	} {
		ok, err := q(ctx, "//missing")
		require.NoError(t, err, name)
		require.False(t, ok, name)
	}
}

func TestIsClickableNeedsDisplayedAndEnabled(t *testing.T) {
	el, fake := newTestElements()
	ctx := context.Background()

	fake.SetElement(btnSubmit, &sessiontest.Element{Displayed: true, Enabled: false})
	ok, err := el.IsClickable(ctx, btnSubmit)
	require.NoError(t, err)
	require.False(t, ok)

	fake.SetElement(btnSubmit, &sessiontest.Element{Displayed: true, Enabled: true})
	ok, err = el.IsClickable(ctx, btnSubmit)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSendTextReplacesAndAddValueAppends(t *testing.T) {
	el, fake := newTestElements()
	ctx := context.Background()
	fake.SetElement(txtMobile, &sessiontest.Element{Displayed: true, Enabled: true, Value: "old"})

	require.NoError(t, el.SendText(ctx, txtMobile, "98765"))
	require.NoError(t, el.AddValue(ctx, txtMobile, "43210"))
	v, err := el.GetValue(ctx, txtMobile)
	require.NoError(t, err)
	require.Equal(t, "9876543210", v)

	require.NoError(t, el.ClearValue(ctx, txtMobile))
	v, err = el.GetValue(ctx, txtMobile)
	require.NoError(t, err)
	require.Empty(t, v)
}

func TestClickMissingElementFails(t *testing.T) {
	el, _ := newTestElements()
	err := el.Click(context.Background(), btnSubmit, "submit button")
	require.ErrorIs(t, err, session.ErrNoSuchElement)
}

func TestWaitForDisplayedBecomesVisible(t *testing.T) {
	el, fake := newTestElements()
	ctx := context.Background()
	banner := &sessiontest.Element{Displayed: false, Enabled: true}
	fake.SetElement("//div[@id='banner']", banner)

	go func() {
		time.Sleep(20 * time.Millisecond)
		fake.SetElement("//div[@id='banner']", &sessiontest.Element{Displayed: true, Enabled: true})
	}()

	require.NoError(t, el.WaitForDisplayed(ctx, "//div[@id='banner']", time.Second, "banner", false))
}

func TestWaitForReverseWaitsForDisappearance(t *testing.T) {
	el, fake := newTestElements()
	ctx := context.Background()
	fake.SetElement("//div[@class='spinner']", &sessiontest.Element{Displayed: true})

	go func() {
		time.Sleep(20 * time.Millisecond)
		fake.RemoveElement("//div[@class='spinner']")
	}()

	require.NoError(t, el.WaitForExist(ctx, "//div[@class='spinner']", time.Second, "spinner", true))
}

func TestWaitForClickableTimesOut(t *testing.T) {
	el, fake := newTestElements()
	fake.SetElement(btnSubmit, &sessiontest.Element{Displayed: true, Enabled: false})

	err := el.WaitForClickable(context.Background(), btnSubmit, 30*time.Millisecond, "submit button", false)
	require.True(t, IsTimeout(err))
	require.Contains(t, err.Error(), "submit button still not clickable")

	err = el.WaitForEnabled(context.Background(), btnSubmit, 30*time.Millisecond, "submit button", false)
	require.True(t, IsTimeout(err))
}

func TestNthSelectorsAddressIndividualMatches(t *testing.T) {
	el, fake := newTestElements()
	ctx := context.Background()
	const otp = `//input[contains(@name,"otp_")]`
	fake.SetElement(otp, &sessiontest.Element{Count: 6, Displayed: true, Enabled: true})

	n, err := el.Count(ctx, otp)
	require.NoError(t, err)
	require.Equal(t, 6, n)

	require.NoError(t, el.SendText(ctx, session.Nth(otp, 2), "7"))
	got, ok := fake.Element(session.Nth(otp, 2))
	require.True(t, ok)
	require.Equal(t, "7", got.Value)

	ok, err = el.IsExisting(ctx, session.Nth(otp, 6))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSelectHelpers(t *testing.T) {
	el, fake := newTestElements()
	ctx := context.Background()
	fake.SetElement(ddlCountry, &sessiontest.Element{Enabled: true, Displayed: true, Options: []string{"IN", "US", "UK"}})

	require.NoError(t, el.SelectByIndex(ctx, ddlCountry, 1))
	v, _ := el.GetValue(ctx, ddlCountry)
	require.Equal(t, "US", v)

	require.NoError(t, el.SelectByVisibleText(ctx, ddlCountry, "UK"))
	v, _ = el.GetValue(ctx, ddlCountry)
	require.Equal(t, "UK", v)

	require.Error(t, el.SelectByAttribute(ctx, ddlCountry, "value", "FR"))
}

func TestIsEqual(t *testing.T) {
	e, fake := newTestElements()
	ctx := context.Background()
	fake.SetElement(btnSubmit, &sessiontest.Element{Count: 2})
	fake.SetElement(txtMobile, &sessiontest.Element{})

	same, err := e.IsEqual(ctx, btnSubmit, session.Nth(btnSubmit, 0))
	require.NoError(t, err)
	require.True(t, same)

	same, err = e.IsEqual(ctx, session.Nth(btnSubmit, 0), session.Nth(btnSubmit, 1))
	require.NoError(t, err)
	require.False(t, same)

	same, err = e.IsEqual(ctx, btnSubmit, txtMobile)
	require.NoError(t, err)
	require.False(t, same)

	_, err = e.IsEqual(ctx, btnSubmit, ddlCountry)
	require.ErrorIs(t, err, session.ErrNoSuchElement)
}
