package emails

// Reminder is a dunning reminder. Final switches to the last-warning subject.
type Reminder struct {
	Final          bool
	GracePeriodEnd string
	DaysRemaining  string
}

func PaymentFailedReminder(appURL string, v Reminder) Message {
	subject := "Payment failed: please update your payment method"
	if v.Final {
		subject = "Final reminder: your subscription will be suspended"
	}
	return message(subject, appURL, func(h *html) {
		h.raw("<h2>We could not process your payment</h2><p>Your subscription stays active until ")
		h.strong(v.GracePeriodEnd)
		h.raw(" (")
		h.text(v.DaysRemaining)
		h.raw(" days left).</p><p>Update your payment method before then to keep your plan.</p>")
	})
}

type Payment struct {
	Amount   string
	Currency string
}

func PaymentReceived(appURL string, v Payment) Message {
	return message("Payment received", appURL, func(h *html) {
		h.raw("<h2>Thank you for your payment</h2><p>We received ")
		h.text(v.Amount + " " + v.Currency)
		h.raw(".</p>")
	})
}

type Activation struct {
	PlanName         string
	CurrentPeriodEnd string
}

func SubscriptionActivated(appURL string, v Activation) Message {
	return message("Welcome to "+v.PlanName, appURL, func(h *html) {
		h.raw("<h2>Your ")
		h.text(v.PlanName)
		h.raw(" subscription is active</h2><p>Your next billing date is ")
		h.strong(v.CurrentPeriodEnd)
		h.raw(".</p>")
	})
}

// Ending covers cancellation and expiry. Status names which one.
type Ending struct {
	Status           string
	EffectiveEndDate string
}

func SubscriptionEnded(appURL string, v Ending) Message {
	return message("Your subscription has ended", appURL, func(h *html) {
		h.raw("<h2>Subscription ")
		h.text(v.Status)
		h.raw("</h2><p>Your paid plan ends on ")
		h.strong(v.EffectiveEndDate)
		h.raw(". After that date your account uses the free plan.</p>")
	})
}

type Suspension struct {
	GracePeriodEnd string
}

func SubscriptionSuspended(appURL string, v Suspension) Message {
	return message("Your subscription has been suspended", appURL, func(h *html) {
		h.raw("<h2>Subscription suspended</h2><p>We were unable to collect payment before ")
		h.strong(v.GracePeriodEnd)
		h.raw(", so your account has been moved to the free plan.</p>")
		h.raw("<p>Resubscribe at any time to restore your limits.</p>")
	})
}
