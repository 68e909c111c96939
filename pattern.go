package main

import (
	"strings"
)

// Pattern describes a family of time series built from the billing report.
type Pattern uint8

const (
	// EC2
	InstanceTypePattern Pattern = iota
	EBSStoragePattern
	EBSPIOPSPattern
	EBSIOPSPattern
	EBSSnapshotPattern
	// RDS
	RDSInstanceTypePattern
	RDSStoragePattern
	RDSPIOPSPattern
	// ElastiCache
	ElastiCacheInstanceTypePattern
	// RegionTotalPattern sums every hourly cost per region, including costs
	// no other pattern breaks out.
	RegionTotalPattern
)

type patternRule struct {
	name  string
	match func(usageType string) bool
	names func(region, usageType string) []string
}

var patternRules = [...]patternRule{
	InstanceTypePattern:            {"ec2-instance-type", usagePrefix("ec2-instance."), regionUsageName},
	EBSStoragePattern:              {"ebs-storage", usagePrefix("ebs.storage."), regionUsageName},
	EBSPIOPSPattern:                {"ebs-piops", usageIs("ebs.piops"), regionUsageName},
	EBSIOPSPattern:                 {"ebs-iops", usageIs("ebs.iops"), regionUsageName},
	EBSSnapshotPattern:             {"ebs-snapshot", usageIs("ebs.snapshot"), regionUsageName},
	RDSInstanceTypePattern:         {"rds-instance-type", usagePrefix("rds-instance."), regionUsageName},
	RDSStoragePattern:              {"rds-storage", usagePrefix("rds.storage."), regionUsageName},
	RDSPIOPSPattern:                {"rds-piops", usageIs("rds.piops"), regionUsageName},
	ElastiCacheInstanceTypePattern: {"elasticache-instance-type", usagePrefix("elasticache-instance."), regionUsageName},
	RegionTotalPattern: {
		"region-total",
		func(string) bool { return true },
		func(region, _ string) []string { return []string{"total-cost." + region} },
	},
}

// DefaultPatterns returns every pattern.
func DefaultPatterns() []Pattern {
	patterns := make([]Pattern, len(patternRules))
	for i := range patternRules {
		patterns[i] = Pattern(i)
	}
	return patterns
}

func (p Pattern) String() string {
	if int(p) < len(patternRules) {
		return patternRules[p].name
	}
	return "unknown"
}

// Match reports whether a line item with the given classified usage type
// belongs to the pattern.
func (p Pattern) Match(usageType string) bool {
	return patternRules[p].match(usageType)
}

// MetricNames returns the series a matching line item is added to.
func (p Pattern) MetricNames(region, usageType string) []string {
	return patternRules[p].names(region, usageType)
}

func usagePrefix(prefix string) func(string) bool {
	return func(usageType string) bool {
		return strings.HasPrefix(usageType, prefix)
	}
}

func usageIs(want string) func(string) bool {
	return func(usageType string) bool {
		return usageType == want
	}
}

func regionUsageName(region, usageType string) []string {
	return []string{region + "." + usageType}
}
