package email

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/notify"
)

// Dispatcher turns notification events into emails. Events whose
// recipient address is unknown are only logged.
type Dispatcher struct {
	sender Sender
	log    *zap.Logger
}

// NewDispatcher returns a Dispatcher sending through sender.
func NewDispatcher(sender Sender, log *zap.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, log: log}
}

// Handle processes one event. It matches notify.HandlerFunc.
func (d *Dispatcher) Handle(ctx context.Context, e notify.Event) error {
	switch e.Type {
	case notify.EventOrderCreated:
		var p notify.OrderCreated
		if err := e.Decode(&p); err != nil {
			return err
		}
		return d.orderCreated(ctx, p)

	case notify.EventBidPlaced:
		var p notify.BidPlaced
		if err := e.Decode(&p); err != nil {
			return err
		}
		return d.bidPlaced(ctx, p)

	case notify.EventAuctionClosed:
		var p notify.AuctionClosed
		if err := e.Decode(&p); err != nil {
			return err
		}
		d.log.Info("auction closed",
			zap.String("auctionPieceId", p.AuctionPieceID),
			zap.String("status", p.Status),
			zap.String("winner", p.WinningBidderID))
		return nil
	}

	d.log.Warn("ignoring unknown event", zap.String("type", string(e.Type)))
	return nil
}

func (d *Dispatcher) orderCreated(ctx context.Context, p notify.OrderCreated) error {
	if p.Email == "" {
		d.log.Info("order confirmation skipped, no email on file", zap.String("orderId", p.OrderID))
		return nil
	}
	total := FormatRupees(p.Total)
	return d.sender.Send(ctx, Message{
		ToEmail: p.Email,
		Subject: fmt.Sprintf("Your Artisan's Loom order %s", p.OrderID),
		PlainText: fmt.Sprintf("Thank you for your order.\n\nOrder: %s\nItems: %d\nTotal: %s\n",
			p.OrderID, p.ItemCount, total),
		HTML: fmt.Sprintf("<p>Thank you for your order.</p><p>Order: <b>%s</b><br>Items: %d<br>Total: %s</p>",
			p.OrderID, p.ItemCount, total),
	})
}

func (d *Dispatcher) bidPlaced(ctx context.Context, p notify.BidPlaced) error {
	if p.BidderEmail == "" {
		return nil
	}
	amount := FormatRupees(p.Amount)
	return d.sender.Send(ctx, Message{
		ToEmail:   p.BidderEmail,
		Subject:   fmt.Sprintf("You are the highest bidder on %s", p.Title),
		PlainText: fmt.Sprintf("Your bid of %s on %q is currently the highest.\n", amount, p.Title),
		HTML:      fmt.Sprintf("<p>Your bid of <b>%s</b> on <i>%s</i> is currently the highest.</p>", amount, p.Title),
	})
}
