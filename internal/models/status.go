package models

import "errors"

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:   {},
	OrderStatusCompleted: {},
	OrderStatusRefunded:  {},
	OrderStatusCancelled: {},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid order status")
}

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
)

var validPayoutStatuses = map[PayoutStatus]struct{}{
	PayoutStatusPending:    {},
	PayoutStatusProcessing: {},
	PayoutStatusCompleted:  {},
	PayoutStatusFailed:     {},
}

func ToPayoutStatus(s string) (PayoutStatus, error) {
	status := PayoutStatus(s)
	if _, ok := validPayoutStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid payout status")
}

// CountsAgainstBalance reports whether a payout in this status reduces the
// seller's available balance. Only failed payouts are released back.
func (s PayoutStatus) CountsAgainstBalance() bool {
	return s != PayoutStatusFailed
}

type PaymentMethod string

const (
	PaymentMethodMTNMomo     PaymentMethod = "mtn_momo"
	PaymentMethodOrangeMoney PaymentMethod = "orange_money"
	PaymentMethodTipMe       PaymentMethod = "tipme"
)

var validPaymentMethods = map[PaymentMethod]struct{}{
	PaymentMethodMTNMomo:     {},
	PaymentMethodOrangeMoney: {},
	PaymentMethodTipMe:       {},
}

func ToPaymentMethod(s string) (PaymentMethod, error) {
	method := PaymentMethod(s)
	if _, ok := validPaymentMethods[method]; ok {
		return method, nil
	}

	return "", errors.New("invalid payment method")
}

type ProductType string

const (
	ProductTypeCourse  ProductType = "course"
	ProductTypeService ProductType = "service"
	ProductTypeAsset   ProductType = "asset"
)

var validProductTypes = map[ProductType]struct{}{
	ProductTypeCourse:  {},
	ProductTypeService: {},
	ProductTypeAsset:   {},
}

func ToProductType(s string) (ProductType, error) {
	pt := ProductType(s)
	if _, ok := validProductTypes[pt]; ok {
		return pt, nil
	}

	return "", errors.New("invalid product type")
}
