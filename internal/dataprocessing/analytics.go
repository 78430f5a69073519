package dataprocessing

import (
	"math"
	"sort"
	"strings"
	"time"

	"salesbi/pkg/contracts/domain"
)

// Aggregations are pure functions of their inputs. Callers choose the input:
// "invoices" means DedupeByInvoice output, "lines" means every transaction
// line. Empty input always yields an empty, non-nil slice.

func keyOrUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.UnspecifiedKey
	}
	return s
}

func customerKey(tx domain.Transaction) string {
	return keyOrUnspecified(tx.CustomerID)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// RevenueByPeriod sums the net value of invoices per "YYYY-MM" period in
// ascending period order. Invoices without an issue date are left out.
func RevenueByPeriod(invoices []domain.Transaction) []domain.PeriodRevenue {
	type bucket struct {
		net      float64
		invoices map[string]struct{}
	}
	buckets := make(map[string]*bucket)
	for _, tx := range invoices {
		if !tx.HasIssueDate() {
			continue
		}
		key := tx.PeriodKey
		if key == "" {
			key = PeriodKey(tx.IssueDate)
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{invoices: make(map[string]struct{})}
			buckets[key] = b
		}
		b.net += tx.NetAmount
		b.invoices[tx.InvoiceNumber] = struct{}{}
	}

	rows := make([]domain.PeriodRevenue, 0, len(buckets))
	for period, b := range buckets {
		rows = append(rows, domain.PeriodRevenue{
			Period:       period,
			NetRevenue:   round2(b.net),
			InvoiceCount: len(b.invoices),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period < rows[j].Period })
	return rows
}

type revenueGroup struct {
	key      string
	first    domain.Transaction
	net      float64
	invoices map[string]struct{}
}

// groupRevenue sums net value per key, keeping groups in first-seen order so
// the stable sort breaks ties by that order
func groupRevenue(invoices []domain.Transaction, keyFn func(domain.Transaction) string) []*revenueGroup {
	index := make(map[string]*revenueGroup)
	var groups []*revenueGroup
	for _, tx := range invoices {
		key := keyFn(tx)
		g, ok := index[key]
		if !ok {
			g = &revenueGroup{key: key, first: tx, invoices: make(map[string]struct{})}
			index[key] = g
			groups = append(groups, g)
		}
		g.net += tx.NetAmount
		g.invoices[tx.InvoiceNumber] = struct{}{}
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].net > groups[j].net })
	return groups
}

func truncate[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func groupRows(groups []*revenueGroup, limit int) []domain.GroupRevenue {
	rows := make([]domain.GroupRevenue, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, domain.GroupRevenue{
			Key:          g.key,
			NetRevenue:   round2(g.net),
			InvoiceCount: len(g.invoices),
		})
	}
	return truncate(rows, limit)
}

// RevenueByRegion ranks regions by net invoice value. limit <= 0 keeps all.
func RevenueByRegion(invoices []domain.Transaction, limit int) []domain.GroupRevenue {
	return groupRows(groupRevenue(invoices, func(tx domain.Transaction) string {
		return keyOrUnspecified(tx.Region)
	}), limit)
}

// RankSalespeople ranks salespeople by net invoice value. limit <= 0 keeps all.
func RankSalespeople(invoices []domain.Transaction, limit int) []domain.GroupRevenue {
	return groupRows(groupRevenue(invoices, func(tx domain.Transaction) string {
		return keyOrUnspecified(tx.Salesperson)
	}), limit)
}

// RankCustomers ranks customers by net invoice value. Name, city and region
// come from the customer's first invoice. limit <= 0 keeps all.
func RankCustomers(invoices []domain.Transaction, limit int) []domain.CustomerRanking {
	groups := groupRevenue(invoices, customerKey)
	rows := make([]domain.CustomerRanking, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, domain.CustomerRanking{
			CustomerID:   g.key,
			CustomerName: g.first.CustomerName,
			City:         g.first.City,
			Region:       g.first.Region,
			NetRevenue:   round2(g.net),
			InvoiceCount: len(g.invoices),
		})
	}
	return truncate(rows, limit)
}

// Positivation computes, per salesperson, the share of the customers ever
// served (in history) that bought at least once in the window
func Positivation(history, window []domain.Transaction) []domain.PositivationRow {
	return positivation(history, window, func(tx domain.Transaction) string {
		return keyOrUnspecified(tx.Salesperson)
	})
}

// PositivationByRegion is Positivation keyed by region
func PositivationByRegion(history, window []domain.Transaction) []domain.PositivationRow {
	return positivation(history, window, func(tx domain.Transaction) string {
		return keyOrUnspecified(tx.Region)
	})
}

func positivation(history, window []domain.Transaction, keyFn func(domain.Transaction) string) []domain.PositivationRow {
	type group struct {
		key       string
		base      map[string]struct{}
		reached   map[string]*domain.ReachedCustomer
		customers []*domain.ReachedCustomer
	}
	index := make(map[string]*group)
	var groups []*group
	get := func(key string) *group {
		g, ok := index[key]
		if !ok {
			g = &group{key: key, base: make(map[string]struct{}), reached: make(map[string]*domain.ReachedCustomer)}
			index[key] = g
			groups = append(groups, g)
		}
		return g
	}

	for _, tx := range history {
		get(keyFn(tx)).base[customerKey(tx)] = struct{}{}
	}
	for _, tx := range window {
		if !tx.IsSale() {
			continue
		}
		g := get(keyFn(tx))
		id := customerKey(tx)
		c, ok := g.reached[id]
		if !ok {
			c = &domain.ReachedCustomer{
				CustomerID:   id,
				CustomerName: tx.CustomerName,
				City:         tx.City,
				Region:       tx.Region,
			}
			g.reached[id] = c
			g.customers = append(g.customers, c)
		}
		c.SaleValue += tx.GrossSaleAmount
	}

	rows := make([]domain.PositivationRow, 0, len(groups))
	for _, g := range groups {
		customers := make([]domain.ReachedCustomer, 0, len(g.customers))
		for _, c := range g.customers {
			rc := *c
			rc.SaleValue = round2(rc.SaleValue)
			customers = append(customers, rc)
		}
		sort.SliceStable(customers, func(i, j int) bool { return customers[i].SaleValue > customers[j].SaleValue })

		rows = append(rows, domain.PositivationRow{
			Key:        g.key,
			Reached:    len(g.reached),
			TotalBase:  len(g.base),
			Percentage: coverage(len(g.reached), len(g.base)),
			Customers:  customers,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Percentage > rows[j].Percentage })
	return rows
}

// coverage is reached/base as a percentage with one decimal; 0 when base is 0
func coverage(reached, base int) float64 {
	if base == 0 {
		return 0
	}
	return round1(float64(reached) / float64(base) * 100)
}

// Churn lists the customers in history without a sale in the window, most
// valuable first. The last salesperson and region come from the customer's
// latest dated transaction; the value is the historical gross sale total.
func Churn(history, window []domain.Transaction) []domain.ChurnRow {
	active := make(map[string]struct{})
	for _, tx := range window {
		if tx.IsSale() {
			active[customerKey(tx)] = struct{}{}
		}
	}

	type entry struct {
		row    domain.ChurnRow
		latest time.Time
		seen   bool
	}
	index := make(map[string]*entry)
	var entries []*entry
	for _, tx := range history {
		id := customerKey(tx)
		if _, ok := active[id]; ok {
			continue
		}
		e, ok := index[id]
		if !ok {
			e = &entry{row: domain.ChurnRow{CustomerID: id}}
			index[id] = e
			entries = append(entries, e)
		}
		if !e.seen || !tx.IssueDate.Before(e.latest) {
			e.seen = true
			e.latest = tx.IssueDate
			e.row.CustomerName = tx.CustomerName
			e.row.City = tx.City
			e.row.Region = tx.Region
			e.row.LastSalesperson = tx.Salesperson
		}
		if tx.IsSale() {
			e.row.HistoricalValue += tx.GrossSaleAmount
			if tx.IssueDate.After(e.row.LastPurchaseDate) {
				e.row.LastPurchaseDate = tx.IssueDate
			}
		}
	}

	rows := make([]domain.ChurnRow, 0, len(entries))
	for _, e := range entries {
		e.row.HistoricalValue = round2(e.row.HistoricalValue)
		rows = append(rows, e.row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].HistoricalValue > rows[j].HistoricalValue })
	return rows
}

// CustomerHistory returns the lines of the customers matching search, newest
// first with undated lines last. A blank search matches nothing.
func CustomerHistory(history []domain.Transaction, search string) []domain.Transaction {
	rows := make([]domain.Transaction, 0)
	cm := newCustomerMatcher(search)
	if cm.blank() {
		return rows
	}
	for _, tx := range history {
		if cm.match(tx.CustomerName, tx.CustomerID) {
			rows = append(rows, tx)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.HasIssueDate() != b.HasIssueDate() {
			return a.HasIssueDate()
		}
		return a.IssueDate.After(b.IssueDate)
	})
	return rows
}

// SuggestCustomers lists distinct customers matching search in first-seen
// order, for autocomplete. limit <= 0 keeps all.
func SuggestCustomers(history []domain.Transaction, search string, limit int) []domain.CustomerRef {
	rows := make([]domain.CustomerRef, 0)
	cm := newCustomerMatcher(search)
	if cm.blank() {
		return rows
	}
	seen := make(map[string]struct{})
	for _, tx := range history {
		id := customerKey(tx)
		if _, dup := seen[id]; dup {
			continue
		}
		if !cm.match(tx.CustomerName, tx.CustomerID) {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, domain.CustomerRef{
			CustomerID:   id,
			CustomerName: tx.CustomerName,
			City:         tx.City,
			Region:       tx.Region,
		})
		if limit > 0 && len(rows) == limit {
			break
		}
	}
	return rows
}

// AveragePriceTrend averages the unit price of sale lines per product and
// period as total value over total quantity, falling back to the plain mean
// of unit prices when no quantity was recorded. Sorted by product then period.
func AveragePriceTrend(lines []domain.Transaction) []domain.PricePoint {
	type key struct{ code, period string }
	type bucket struct {
		name              string
		gross, qty, price float64
		count             int
	}
	buckets := make(map[key]*bucket)
	for _, tx := range lines {
		if !tx.IsSale() || !tx.HasIssueDate() {
			continue
		}
		k := key{code: keyOrUnspecified(tx.ProductCode), period: PeriodKey(tx.IssueDate)}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{name: tx.ProductName}
			buckets[k] = b
		}
		b.gross += tx.GrossAmount
		b.qty += tx.Quantity
		b.price += tx.UnitPrice
		b.count++
	}

	rows := make([]domain.PricePoint, 0, len(buckets))
	for k, b := range buckets {
		avg := b.price / float64(b.count)
		if b.qty != 0 {
			avg = b.gross / b.qty
		}
		rows = append(rows, domain.PricePoint{
			ProductCode:  k.code,
			ProductName:  b.name,
			Period:       k.period,
			AveragePrice: round2(avg),
			Quantity:     b.qty,
			LineCount:    b.count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ProductCode != rows[j].ProductCode {
			return rows[i].ProductCode < rows[j].ProductCode
		}
		return rows[i].Period < rows[j].Period
	})
	return rows
}

var tierOrder = map[domain.CommissionTier]int{
	domain.CommissionTier4:   0,
	domain.CommissionTier3:   1,
	domain.CommissionTier2_5: 2,
	domain.CommissionTier2:   3,
	domain.CommissionNone:    4,
}

// CommissionSummary totals sale lines per salesperson and tier with the
// commission owed at each tier's rate. Lines without a tier are listed with
// a zero commission.
func CommissionSummary(lines []domain.Transaction) []domain.CommissionRow {
	type key struct {
		salesperson string
		tier        domain.CommissionTier
	}
	buckets := make(map[key]*domain.CommissionRow)
	for _, tx := range lines {
		if !tx.IsSale() {
			continue
		}
		k := key{salesperson: keyOrUnspecified(tx.Salesperson), tier: tx.CommissionTier}
		row, ok := buckets[k]
		if !ok {
			row = &domain.CommissionRow{Salesperson: k.salesperson, Tier: k.tier, Rate: k.tier.Rate()}
			buckets[k] = row
		}
		row.SaleValue += tx.GrossSaleAmount
		row.LineCount++
	}

	rows := make([]domain.CommissionRow, 0, len(buckets))
	for _, row := range buckets {
		r := *row
		r.CommissionAmount = round2(r.SaleValue * r.Rate / 100)
		r.SaleValue = round2(r.SaleValue)
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Salesperson != rows[j].Salesperson {
			return rows[i].Salesperson < rows[j].Salesperson
		}
		return tierOrder[rows[i].Tier] < tierOrder[rows[j].Tier]
	})
	return rows
}

// Summarize computes the headline KPIs. Revenue figures are invoice-level;
// line and customer counts use every line. Uncatalogued lines are counted
// only when a catalogue was joined.
func Summarize(lines, invoices []domain.Transaction, withCatalog bool) domain.Summary {
	var s domain.Summary
	for _, tx := range invoices {
		s.NetRevenue += tx.NetAmount
		s.GrossSaleRevenue += tx.GrossSaleAmount
		if tx.MovementType == domain.MovementSaleReturn {
			s.ReturnsTotal += tx.GrossAmount
		}
	}
	s.InvoiceCount = len(invoices)
	s.LineCount = len(lines)

	customers := make(map[string]struct{})
	for _, tx := range lines {
		customers[customerKey(tx)] = struct{}{}
		if withCatalog && !tx.Catalogued {
			s.UncataloguedCount++
		}
	}
	s.CustomerCount = len(customers)

	if s.InvoiceCount > 0 {
		s.AverageTicket = round2(s.NetRevenue / float64(s.InvoiceCount))
	}
	s.NetRevenue = round2(s.NetRevenue)
	s.GrossSaleRevenue = round2(s.GrossSaleRevenue)
	s.ReturnsTotal = round2(s.ReturnsTotal)
	return s
}

// FilterOptions lists the distinct non-blank salespeople, regions and years
// present in history, sorted
func FilterOptions(history []domain.Transaction) domain.FilterOptions {
	salespeople := make(map[string]struct{})
	regions := make(map[string]struct{})
	years := make(map[int]struct{})
	for _, tx := range history {
		if tx.Salesperson != "" {
			salespeople[tx.Salesperson] = struct{}{}
		}
		if tx.Region != "" {
			regions[tx.Region] = struct{}{}
		}
		if tx.Year != 0 {
			years[tx.Year] = struct{}{}
		}
	}

	opts := domain.FilterOptions{
		Salespeople: sortedKeys(salespeople),
		Regions:     sortedKeys(regions),
		Years:       make([]int, 0, len(years)),
	}
	for y := range years {
		opts.Years = append(opts.Years, y)
	}
	sort.Ints(opts.Years)
	return opts
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
