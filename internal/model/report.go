package model

import "time"

// MedicineRanking is a single row of the top-selling aggregation.
type MedicineRanking struct {
	MedicineID    string  `json:"medicine_id"`
	MedicineName  string  `json:"medicine_name"`
	TotalQuantity int     `json:"total_quantity"`
	TotalValue    float64 `json:"total_value"`
}

// SalesReport aggregates settled payments over a time range.
type SalesReport struct {
	TimeRangeStartDate time.Time         `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time         `json:"time_range_end_date"`
	TotalRevenue       float64           `json:"total_revenue"`
	PaymentCount       int64             `json:"payment_count"`
	TopSellingItems    []MedicineRanking `json:"top_selling_items"`
}

// InventoryReport lists catalog entries needing attention.
type InventoryReport struct {
	LowStock     []Medicine `json:"low_stock"`
	ExpiringSoon []Medicine `json:"expiring_soon"`
	ExpiryWindow int        `json:"expiry_window_days"`
}
