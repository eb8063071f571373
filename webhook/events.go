package webhook

import "context"

/* Producer convenience API.
 * One method per event kind so peripheral code (ticket creation, quote
 * submission, payment confirmation) never touches signing or retry
 * details. Each payload shape is owned by its producer; the dispatcher
 * treats data as an opaque mapping.
 */

// CustomerCreated notifies the portal about a new customer account
func (d *Dispatcher) CustomerCreated(ctx context.Context, data map[string]any) Result {
	return d.Send(ctx, CustomerCreated, data)
}

// TicketCreated notifies the portal about a new support ticket
func (d *Dispatcher) TicketCreated(ctx context.Context, data map[string]any) Result {
	return d.Send(ctx, TicketCreated, data)
}

// TicketUpdated notifies the portal about a ticket status change
func (d *Dispatcher) TicketUpdated(ctx context.Context, data map[string]any) Result {
	return d.Send(ctx, TicketUpdated, data)
}

// TicketMessage notifies the portal about a new ticket reply
func (d *Dispatcher) TicketMessage(ctx context.Context, data map[string]any) Result {
	return d.Send(ctx, TicketMessage, data)
}

// QuoteRequested notifies the portal about a quote request
func (d *Dispatcher) QuoteRequested(ctx context.Context, data map[string]any) Result {
	return d.Send(ctx, QuoteRequested, data)
}

// PaymentCompleted notifies the portal about a completed payment
func (d *Dispatcher) PaymentCompleted(ctx context.Context, data map[string]any) Result {
	return d.Send(ctx, PaymentCompleted, data)
}

// SubscriptionCreated notifies the portal about a new subscription
func (d *Dispatcher) SubscriptionCreated(ctx context.Context, data map[string]any) Result {
	return d.Send(ctx, SubscriptionCreated, data)
}

// SubscriptionCancelled notifies the portal about a cancelled subscription
func (d *Dispatcher) SubscriptionCancelled(ctx context.Context, data map[string]any) Result {
	return d.Send(ctx, SubscriptionCancelled, data)
}

// ContactSubmitted notifies the portal about a contact form submission
func (d *Dispatcher) ContactSubmitted(ctx context.Context, data map[string]any) Result {
	return d.Send(ctx, ContactSubmitted, data)
}

// LeadCreated notifies the portal about a new sales lead
func (d *Dispatcher) LeadCreated(ctx context.Context, data map[string]any) Result {
	return d.Send(ctx, LeadCreated, data)
}
