// Package bills computes and manages the bill attached to a checked-in
// reservation.
package bills

import (
	"math"
	"time"

	"tabletreats/pkg/model"

	"github.com/google/uuid"
)

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Calculate prices a bill. Each line is rounded to cents first; the
// aggregate sums are rounded again after summation. Changing either
// stage changes totals, so updates always recompute from scratch.
//
// A promo_id pointing at anything but an active deal yields a zero
// discount, not an error.
func Calculate(items []model.BillItemInput, deals []model.Deal, taxRate float64) *model.Bill {
	bill := &model.Bill{
		Items:   make([]model.BillItem, 0, len(items)),
		TaxRate: taxRate,
	}

	for _, input := range items {
		item := model.BillItem{
			ItemID:    uuid.NewString(),
			DishName:  input.DishName,
			Quantity:  input.Quantity,
			UnitPrice: input.UnitPrice,
			PromoID:   input.PromoID,
			Subtotal:  round2(float64(input.Quantity) * input.UnitPrice),
		}

		if deal := activeDeal(deals, input.PromoID); deal != nil {
			item.DiscountAmount = discountFor(deal, item)
			item.DealApplied = deal
		}
		item.FinalAmount = round2(item.Subtotal - item.DiscountAmount)

		bill.Subtotal += item.Subtotal
		bill.DiscountTotal += item.DiscountAmount
		bill.Items = append(bill.Items, item)
	}

	bill.Subtotal = round2(bill.Subtotal)
	bill.DiscountTotal = round2(bill.DiscountTotal)
	bill.SubtotalAfterDiscount = round2(bill.Subtotal - bill.DiscountTotal)
	bill.TaxAmount = round2(bill.SubtotalAfterDiscount * taxRate / 100)
	bill.Total = round2(bill.SubtotalAfterDiscount + bill.TaxAmount)
	bill.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	return bill
}

func activeDeal(deals []model.Deal, promoID string) *model.Deal {
	if promoID == "" {
		return nil
	}
	for i := range deals {
		if deals[i].ID == promoID && deals[i].IsActive {
			copied := deals[i]
			return &copied
		}
	}
	return nil
}

func discountFor(deal *model.Deal, item model.BillItem) float64 {
	switch deal.DiscountType {
	case model.DiscountPercentage:
		if deal.DiscountValue == nil {
			return 0
		}
		return round2(item.Subtotal * *deal.DiscountValue / 100)
	case model.DiscountFlatAmount:
		if deal.DiscountValue == nil {
			return 0
		}
		return math.Min(*deal.DiscountValue, item.Subtotal)
	case model.DiscountBogo:
		// One free for every complete pair.
		return round2(float64(item.Quantity/2) * item.UnitPrice)
	default:
		return 0
	}
}
