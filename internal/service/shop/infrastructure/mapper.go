package infrastructure

import (
	"shopbank/internal/pkg/money"
	"shopbank/internal/service/shop/domain"
)

func toDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       money.Amount(m.Price),
		Stock:       m.Stock,
	}
}

func toProductModel(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       int64(p.Price),
		Stock:       p.Stock,
	}
}

func toDomainBuyer(m *BuyerModel) *domain.Buyer {
	return &domain.Buyer{
		ID:                m.ID,
		Name:              m.Name,
		Email:             m.Email,
		BankAccountNumber: m.BankAccountNumber,
	}
}

func toBuyerModel(b *domain.Buyer) *BuyerModel {
	return &BuyerModel{
		ID:                b.ID,
		Name:              b.Name,
		Email:             b.Email,
		BankAccountNumber: b.BankAccountNumber,
	}
}

func toDomainCartLine(m *CartLineModel) *domain.CartLine {
	return &domain.CartLine{
		ID:        m.ID,
		BuyerID:   m.BuyerID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		UnitPrice: money.Amount(m.UnitPrice),
		CreatedAt: m.CreatedAt,
	}
}

func toCartLineModel(l *domain.CartLine) *CartLineModel {
	return &CartLineModel{
		ID:        l.ID,
		BuyerID:   l.BuyerID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		UnitPrice: int64(l.UnitPrice),
		CreatedAt: l.CreatedAt,
	}
}

func toDomainOrder(m *OrderModel) *domain.Order {
	lines := make([]domain.OrderLine, 0, len(m.Lines))
	for _, lm := range m.Lines {
		lines = append(lines, domain.OrderLine{
			ProductID: lm.ProductID,
			Quantity:  lm.Quantity,
			UnitPrice: money.Amount(lm.UnitPrice),
		})
	}
	return &domain.Order{
		ID:            m.ID,
		Number:        m.OrderNumber,
		BuyerID:       m.BuyerID,
		Total:         money.Amount(m.Total),
		Status:        domain.Status(m.Status),
		PaymentRef:    m.PaymentRef,
		FailureReason: m.FailureReason,
		CreatedAt:     m.CreatedAt,
		Lines:         lines,
	}
}

func toOrderModel(o *domain.Order) *OrderModel {
	lines := make([]OrderLineModel, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineModel{
			OrderID:   o.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: int64(l.UnitPrice),
		})
	}
	return &OrderModel{
		ID:            o.ID,
		OrderNumber:   o.Number,
		BuyerID:       o.BuyerID,
		Total:         int64(o.Total),
		Status:        string(o.Status),
		PaymentRef:    o.PaymentRef,
		FailureReason: o.FailureReason,
		CreatedAt:     o.CreatedAt,
		Lines:         lines,
	}
}
