package handlers

import (
	"github.com/celustore/payserver/internal/domain/model"
	"github.com/celustore/payserver/internal/server/http/dto"
	"github.com/celustore/payserver/internal/usecase"
)

func toOrderResponse(order *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:   item.ProductID,
			ProductType: item.ProductType,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Subtotal:    item.Subtotal.StringFixed(2),
			Color:       item.Variant.Color,
			Capacity:    item.Variant.Capacity,
			Condition:   item.Variant.Condition,
		})
	}

	response := dto.OrderResponse{
		ID:               order.ID,
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		PaymentMethod:    string(order.PaymentMethod),
		Items:            items,
		Subtotal:         order.Subtotal.StringFixed(2),
		Shipping:         order.Shipping.StringFixed(2),
		Total:            order.Total.StringFixed(2),
		RejectionCode:    order.RejectionCode,
		RejectionMessage: order.RejectionMessage,
		CreatedAt:        order.CreatedAt,
	}
	if order.Voucher != nil {
		response.Voucher = &dto.VoucherResponse{
			AuthorizationID: order.Voucher.AuthorizationID,
			RetrievalRef:    order.Voucher.RetrievalRef,
			TransactionAt:   order.Voucher.TransactionAt,
		}
	}
	return response
}

func toStepResponse(result *usecase.StepResult) dto.PaymentStepResponse {
	response := dto.PaymentStepResponse{
		Approved:         result.Approved,
		Partial:          result.Partial,
		PartialReason:    result.PartialReason,
		TimedOut:         result.TimedOut,
		ReversalExecuted: result.ReversalExecuted,
		VerifyManually:   result.VerifyManually,
		PaymentStatus:    string(result.PaymentStatus),
		OrderStatus:      string(result.OrderStatus),
		ResponseCode:     result.ResponseCode,
		Message:          result.Message,
		ConfigHint:       result.ConfigHint,
	}
	if result.Continuation != nil {
		response.AuthenticationRequired = true
		response.Authentication = &dto.AuthenticationResponse{
			AccessToken:             result.Continuation.AccessToken,
			DeviceDataCollectionURL: result.Continuation.CollectionURL,
			ReferenceID:             result.Continuation.ReferenceID,
		}
	}
	if result.Challenge != nil {
		response.AuthenticationRequired = true
		response.Authentication = &dto.AuthenticationResponse{
			AccessToken: result.Challenge.AccessToken,
			StepUpURL:   result.Challenge.StepUpURL,
			ReferenceID: result.Challenge.ReferenceID,
			DSTransID:   result.Challenge.DSTransID,
		}
	}
	return response
}
