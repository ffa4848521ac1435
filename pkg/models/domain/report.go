package domain

import "time"

// VMRecord is the denormalized join of one virtual machine with its cost
// summary, utilization sample and resolved pricing. Missing upstream data
// degrades individual fields, never drops the record.
type VMRecord struct {
	VM          VirtualMachine
	Cost        CostSummary
	Utilization UtilizationSample
	Pricing     ResolvedPricing
}

// SubscriptionReport is the per-subscription output of one reconciliation
// run, in inventory order.
type SubscriptionReport struct {
	SubscriptionID string
	GeneratedAt    time.Time
	VMs            []VMRecord
}
