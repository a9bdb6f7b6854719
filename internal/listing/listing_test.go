package listing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maitred/internal/models"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC)
}

func invoiceFixture() []models.Invoice {
	return []models.Invoice{
		{ID: "1", InvoiceNumber: "INV-001", CustomerName: "Alice Martin", RestaurantName: "Spice Garden", Status: models.InvoiceStatusPaid, Amount: 472.5, IssuedAt: day(1)},
		{ID: "2", InvoiceNumber: "INV-002", CustomerName: "Bob Chen", RestaurantName: "Pizza Palace", Status: models.InvoiceStatusPending, Amount: 120, IssuedAt: day(2)},
		{ID: "3", InvoiceNumber: "INV-003", CustomerName: "Carla Diaz", RestaurantName: "Spice Garden", Status: models.InvoiceStatusPaid, Amount: 89.25, IssuedAt: day(3)},
		{ID: "4", InvoiceNumber: "INV-004", CustomerName: "Dev Patel", RestaurantName: "Burger Barn", Status: models.InvoiceStatusOverdue, Amount: 310, IssuedAt: day(4)},
		{ID: "5", InvoiceNumber: "INV-005", CustomerName: "Ema Sato", RestaurantName: "Sushi Bar", Status: models.InvoiceStatusPaid, Amount: 56.7, IssuedAt: day(5)},
		{ID: "6", InvoiceNumber: "INV-006", CustomerName: "Farid Aziz", RestaurantName: "Pizza Palace", Status: models.InvoiceStatusCancelled, Amount: 45, IssuedAt: day(6)},
		{ID: "7", InvoiceNumber: "INV-007", CustomerName: "Gina Rossi", RestaurantName: "Burger Barn", Status: models.InvoiceStatusPaid, Amount: 210.1, IssuedAt: day(7)},
		{ID: "8", InvoiceNumber: "INV-008", CustomerName: "Hugo Blanc", RestaurantName: "Sushi Bar", Status: models.InvoiceStatusPending, Amount: 99.99, IssuedAt: day(8)},
		{ID: "9", InvoiceNumber: "INV-009", CustomerName: "Ines Costa", RestaurantName: "Spice Garden", Status: models.InvoiceStatusOverdue, Amount: 15.5, IssuedAt: day(9)},
		{ID: "10", InvoiceNumber: "INV-010", CustomerName: "Jon Berg", RestaurantName: "Pizza Palace", Status: models.InvoiceStatusPaid, Amount: 330, IssuedAt: day(10)},
	}
}

func ids(invoices []models.Invoice) []string {
	out := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, inv.ID)
	}
	return out
}

func TestInvoiceStatusFilter(t *testing.T) {
	invoices := invoiceFixture()

	paid, err := InvoiceQuery{Status: models.InvoiceStatusPaid, Direction: Ascending}.Apply(invoices)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "3", "5", "7", "10"}, ids(paid))
	for _, inv := range paid {
		assert.Equal(t, models.InvoiceStatusPaid, inv.Status)
	}

	summary := SummarizeInvoices(paid)
	assert.Equal(t, 5, summary.Count)
	// 472.5 + 89.25 + 56.7 + 210.1 + 330
	assert.True(t, decimal.RequireFromString("1158.55").Equal(summary.Total), "got %s", summary.Total)
	assert.Equal(t, 5, summary.ByStatus["paid"].Count)
}

func TestInvoiceSummaryBuckets(t *testing.T) {
	summary := SummarizeInvoices(invoiceFixture())

	assert.Equal(t, 10, summary.Count)
	assert.Equal(t, []string{"cancelled", "overdue", "paid", "pending"}, summary.Statuses())
	assert.Equal(t, 2, summary.ByStatus["pending"].Count)
	assert.True(t, decimal.RequireFromString("219.99").Equal(summary.ByStatus["pending"].Sum))
	assert.True(t, decimal.RequireFromString("325.5").Equal(summary.ByStatus["overdue"].Sum))
}

func TestInvoiceFiltersCompose(t *testing.T) {
	lo := 50.0
	hi := 400.0
	q := InvoiceQuery{
		Search:    "spice",
		Issued:    DateRange{From: day(2), To: day(9)},
		Amount:    AmountRange{Min: &lo, Max: &hi},
		Direction: Ascending,
	}

	got, err := q.Apply(invoiceFixture())
	require.NoError(t, err)
	// INV-001 is outside the date range, INV-009 is below the minimum
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestSortToggleReversesOrder(t *testing.T) {
	invoices := invoiceFixture()

	asc, err := InvoiceQuery{SortKey: SortByDate, Direction: Ascending}.Apply(invoices)
	require.NoError(t, err)
	desc, err := InvoiceQuery{SortKey: SortByDate, Direction: Ascending.Toggle()}.Apply(invoices)
	require.NoError(t, err)

	require.Len(t, desc, len(asc))
	for i := range asc {
		assert.Equal(t, asc[i].ID, desc[len(desc)-1-i].ID)
	}
	assert.ElementsMatch(t, ids(asc), ids(desc))
	assert.ElementsMatch(t, ids(invoices), ids(asc))
}

func TestSortByAmount(t *testing.T) {
	got, err := InvoiceQuery{SortKey: SortByAmount, Direction: Descending}.Apply(invoiceFixture())
	require.NoError(t, err)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "9", got[len(got)-1].ID)
}

func TestInvalidSortKey(t *testing.T) {
	_, err := InvoiceQuery{SortKey: "colour"}.Apply(invoiceFixture())
	assert.Error(t, err)
}

func TestSortByDoesNotMutateInput(t *testing.T) {
	invoices := invoiceFixture()
	_, err := InvoiceQuery{SortKey: SortByAmount}.Apply(invoices)
	require.NoError(t, err)
	assert.Equal(t, ids(invoiceFixture()), ids(invoices))
}

func TestMatchesText(t *testing.T) {
	assert.True(t, MatchesText("", "anything"))
	assert.True(t, MatchesText("  GARDEN ", "Spice Garden"))
	assert.False(t, MatchesText("sushi", "Spice Garden", "Pizza Palace"))
}

func TestDateRangeOpenBounds(t *testing.T) {
	assert.True(t, DateRange{}.Contains(day(1)))
	assert.True(t, DateRange{From: day(1)}.Contains(day(1)))
	assert.False(t, DateRange{To: day(1)}.Contains(day(2)))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("", Descending)
	require.NoError(t, err)
	assert.Equal(t, Descending, d)

	d, err = ParseDirection("ASC", Descending)
	require.NoError(t, err)
	assert.Equal(t, Ascending, d)

	_, err = ParseDirection("sideways", Descending)
	assert.Error(t, err)
}

func TestOrderQuery(t *testing.T) {
	orders := []models.Order{
		{ID: "a", OrderNumber: "ORD-1", Status: models.OrderStatusPending, TotalAmount: 20, CreatedAt: day(1),
			Items: []models.OrderItem{{Name: "Paneer Tikka", Quantity: 1, Price: 20}}},
		{ID: "b", OrderNumber: "ORD-2", Status: models.OrderStatusPreparing, TotalAmount: 35, CreatedAt: day(2),
			Customer: models.Customer{Name: "Rahul"}},
		{ID: "c", OrderNumber: "ORD-3", Status: models.OrderStatusPending, TotalAmount: 12, CreatedAt: day(3)},
	}

	pending, err := OrderQuery{Status: models.OrderStatusPending}.Apply(orders)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "c", pending[0].ID, "newest first by default")

	byItem, err := OrderQuery{Search: "tikka"}.Apply(orders)
	require.NoError(t, err)
	require.Len(t, byItem, 1)
	assert.Equal(t, "a", byItem[0].ID)

	summary := SummarizeOrders(orders)
	assert.Equal(t, 2, summary.ByStatus["pending"].Count)
	assert.True(t, decimal.NewFromInt(32).Equal(summary.ByStatus["pending"].Sum))
}

func TestMenuQuery(t *testing.T) {
	items := []models.MenuItem{
		{ID: "1", Name: "Tiramisu", Category: "Dessert", Price: 6, IsAvailable: true},
		{ID: "2", Name: "Biryani", Category: "Main", Price: 14, IsAvailable: false},
		{ID: "3", Name: "Lassi", Category: "Beverage", Price: 3, IsAvailable: true},
		{ID: "4", Name: "butter chicken", Category: "Main", Price: 16, IsAvailable: true},
	}

	available := true
	got, err := MenuQuery{Available: &available}.Apply(items)
	require.NoError(t, err)
	assert.Equal(t, []string{"butter chicken", "Lassi", "Tiramisu"}, []string{got[0].Name, got[1].Name, got[2].Name})

	mains, err := MenuQuery{Category: "main", SortKey: SortByPrice, Direction: Descending}.Apply(items)
	require.NoError(t, err)
	require.Len(t, mains, 2)
	assert.Equal(t, "4", mains[0].ID)

	assert.Equal(t, 2, CountByCategory(items)["Main"])
}

func TestUserQuery(t *testing.T) {
	users := []models.User{
		{ID: "1", Name: "Zara", Email: "zara@example.com", Role: models.UserRoleAdmin, Status: models.UserStatusActive, CreatedAt: day(1)},
		{ID: "2", Name: "amir", Email: "amir@example.com", Role: models.UserRoleRestaurantOwner, Status: models.UserStatusSuspended, CreatedAt: day(2)},
		{ID: "3", Name: "Lena", Email: "lena@food.io", Role: models.UserRoleRestaurantOwner, Status: models.UserStatusActive, CreatedAt: day(3)},
	}

	owners, err := UserQuery{Role: models.UserRoleRestaurantOwner, SortKey: SortByName, Direction: Ascending}.Apply(users)
	require.NoError(t, err)
	require.Len(t, owners, 2)
	assert.Equal(t, "amir", owners[0].Name)

	byEmail, err := UserQuery{Search: "example.com", Status: models.UserStatusActive}.Apply(users)
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "1", byEmail[0].ID)

	assert.Equal(t, 2, CountByRole(users)[models.UserRoleRestaurantOwner])
}

func TestTicketQuery(t *testing.T) {
	tickets := []models.SupportTicket{
		{ID: "1", TicketNumber: "TCK-1", Subject: "Payout delayed", Status: models.TicketStatusOpen, Priority: models.TicketPriorityHigh, CreatedAt: day(1)},
		{ID: "2", TicketNumber: "TCK-2", Subject: "Menu sync", Status: models.TicketStatusResolved, Priority: models.TicketPriorityLow, CreatedAt: day(2)},
		{ID: "3", TicketNumber: "TCK-3", Subject: "Tablet offline", Status: models.TicketStatusOpen, Priority: models.TicketPriorityUrgent, CreatedAt: day(3),
			Restaurant: models.RestaurantRef{Name: "Pizza Palace"}},
	}

	byPriority, err := TicketQuery{SortKey: SortByPriority}.Apply(tickets)
	require.NoError(t, err)
	assert.Equal(t, "3", byPriority[0].ID)
	assert.Equal(t, "2", byPriority[2].ID)

	palace, err := TicketQuery{Search: "palace", Status: models.TicketStatusOpen}.Apply(tickets)
	require.NoError(t, err)
	require.Len(t, palace, 1)

	summary := SummarizeTickets(tickets)
	assert.Equal(t, 2, summary.ByStatus["open"].Count)
	assert.True(t, summary.Total.IsZero())
}
