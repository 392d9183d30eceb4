package service

import (
	"fmt"

	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
)

// Allowed status transitions. Absent keys are terminal states.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderCreated:  {models.OrderOnTheWay, models.OrderPickedUp, models.OrderProblem},
	models.OrderOnTheWay: {models.OrderPickedUp, models.OrderProblem},
	models.OrderPickedUp: {models.OrderProblem},
}

var returnOrderTransitions = map[models.ReturnOrderStatus][]models.ReturnOrderStatus{
	models.ReturnCreated:  {models.ReturnOnTheWay, models.ReturnChecking},
	models.ReturnOnTheWay: {models.ReturnPickedUp, models.ReturnProblem},
	models.ReturnPickedUp: {models.ReturnChecking},
	models.ReturnChecking: {models.ReturnDone, models.ReturnProblem},
}

func validateOrderTransition(from, to models.OrderStatus) error {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return appErrors.NewInvalidStateTransition(
		fmt.Sprintf("Cannot change order status from %s to %s", from, to))
}

func validateReturnOrderTransition(from, to models.ReturnOrderStatus) error {
	for _, allowed := range returnOrderTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return appErrors.NewInvalidStateTransition(
		fmt.Sprintf("Cannot change return order status from %s to %s", from, to))
}
