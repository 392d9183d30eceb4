package service

import (
	"testing"

	"github.com/ujwegh/bookmart/internal/app/models"
)

func TestValidateOrderTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.OrderStatus
		to      models.OrderStatus
		wantErr bool
	}{
		{name: "Created To On The Way", from: models.OrderCreated, to: models.OrderOnTheWay},
		{name: "Created To Picked Up", from: models.OrderCreated, to: models.OrderPickedUp},
		{name: "Created To Problem", from: models.OrderCreated, to: models.OrderProblem},
		{name: "On The Way To Picked Up", from: models.OrderOnTheWay, to: models.OrderPickedUp},
		{name: "Picked Up To Problem", from: models.OrderPickedUp, to: models.OrderProblem},
		{name: "Picked Up Back To Created", from: models.OrderPickedUp, to: models.OrderCreated, wantErr: true},
		{name: "Picked Up To On The Way", from: models.OrderPickedUp, to: models.OrderOnTheWay, wantErr: true},
		{name: "Problem Is Terminal", from: models.OrderProblem, to: models.OrderCreated, wantErr: true},
		{name: "Same Status", from: models.OrderCreated, to: models.OrderCreated, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOrderTransition(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateOrderTransition(%s, %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}
}

func TestValidateReturnOrderTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.ReturnOrderStatus
		to      models.ReturnOrderStatus
		wantErr bool
	}{
		{name: "Created To On The Way", from: models.ReturnCreated, to: models.ReturnOnTheWay},
		{name: "Created To Checking", from: models.ReturnCreated, to: models.ReturnChecking},
		{name: "On The Way To Picked Up", from: models.ReturnOnTheWay, to: models.ReturnPickedUp},
		{name: "On The Way To Problem", from: models.ReturnOnTheWay, to: models.ReturnProblem},
		{name: "Picked Up To Checking", from: models.ReturnPickedUp, to: models.ReturnChecking},
		{name: "Checking To Done", from: models.ReturnChecking, to: models.ReturnDone},
		{name: "Checking To Problem", from: models.ReturnChecking, to: models.ReturnProblem},
		{name: "Created Straight To Done", from: models.ReturnCreated, to: models.ReturnDone, wantErr: true},
		{name: "Done Is Terminal", from: models.ReturnDone, to: models.ReturnChecking, wantErr: true},
		{name: "Problem Is Terminal", from: models.ReturnProblem, to: models.ReturnChecking, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateReturnOrderTransition(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateReturnOrderTransition(%s, %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}
}
