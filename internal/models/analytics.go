package models

// Analytics is the dashboard summary returned by the analytics endpoint
type Analytics struct {
	Period            string         `json:"period"`
	TotalOrders       int            `json:"total_orders"`
	TotalRevenue      float64        `json:"total_revenue"`
	AverageOrderValue float64        `json:"average_order_value"`
	OrdersByStatus    map[string]int `json:"orders_by_status"`
	PopularItems      []PopularItem  `json:"popular_items"`
}

// PopularItem is a best-selling menu item over the analytics period
type PopularItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}
