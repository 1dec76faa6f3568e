package customer

import "time"

type Customer struct {
	ID        string    `json:"customerId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}
