package main

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// ebsTypes maps product/volumeType to the EBS API volume type.
var ebsTypes = map[string]string{
	"Magnetic":         "standard",
	"General Purpose":  "gp2",
	"Provisioned IOPS": "io1",
	"Unknown Storage":  "unknown",
}

// The hourly report stopped filling product/volumeType for RDS storage in
// September 2016, so the storage type is looked up in the line item
// description instead. Phrases are tried in order.
var rdsStorageTypes = []struct {
	phrase     string
	volumeType string
}{
	{"Provisioned IOPS Storage", "io1"},
	{"provisioned GP2 storage", "gp2"},
}

// RDSStorageFallback selects what happens to an RDS storage line item whose
// description names no known storage type.
type RDSStorageFallback uint8

const (
	// FailOnUnknownRDSStorage makes classification return a ClassificationError.
	FailOnUnknownRDSStorage RDSStorageFallback = iota
	// DegradeUnknownRDSStorage classifies the line item as rds.storage.unknown.
	DegradeUnknownRDSStorage
)

// ParseRDSStorageFallback parses the classify.rds_storage_fallback setting.
func ParseRDSStorageFallback(s string) (RDSStorageFallback, bool) {
	switch s {
	case "", "fail":
		return FailOnUnknownRDSStorage, true
	case "unknown":
		return DegradeUnknownRDSStorage, true
	}
	return 0, false
}

// usageFields is the subset of a line item that classification looks at.
// usageType has had its region code stripped; rawUsageType hasn't.
type usageFields struct {
	rawUsageType string
	usageType    string
	volumeType   string
	description  string
}

type usageRule struct {
	match    func(f usageFields) bool
	classify func(c Classifier, f usageFields) (string, error)
}

// usageRules are tried in order and the first match wins. No usage type
// matches more than one rule.
var usageRules = []usageRule{
	// EC2
	{hasPrefix("BoxUsage:"), instanceType("ec2-instance")},
	{equals("EBS:VolumeP-IOPS.piops"), constant("ebs.piops")},
	{hasPrefix("EBS:VolumeUsage"), func(_ Classifier, f usageFields) (string, error) {
		volumeType, ok := ebsTypes[f.volumeType]
		if !ok {
			volumeType = "unknown"
		}
		return "ebs.storage." + volumeType, nil
	}},
	{equals("EBS:VolumeIOUsage"), constant("ebs.iops")},
	{equals("EBS:SnapshotUsage"), constant("ebs.snapshot")},

	// RDS
	{hasPrefix("InstanceUsage:", "Multi-AZUsage:"), instanceType("rds-instance")},
	{equals("RDS:PIOPS", "RDS:Multi-AZ-PIOPS"), constant("rds.piops")},
	{func(f usageFields) bool {
		return strings.HasPrefix(f.usageType, "RDS:") && strings.HasSuffix(f.usageType, "Storage")
	}, Classifier.rdsStorage},

	// ElastiCache
	{hasPrefix("NodeUsage:"), instanceType("elasticache-instance")},
}

// Classifier turns lineItem/UsageType values into dotted metric paths such
// as "ec2-instance.c3-2xlarge", "ebs.storage.io1" or "rds-instance.db-r3-large".
type Classifier struct {
	RDSStorageFallback RDSStorageFallback
}

// Classify returns the metric path for a usage type, or the empty string if
// the usage type isn't one we break out. volumeType is product/volumeType and
// may be empty; description is lineItem/LineItemDescription.
//
// Usage types come in many shapes:
//
//	USE1-USW2-AWS-In-Bytes
//	Requests-RBP
//	APN1-DataProcessing-Bytes
//	APN1-BoxUsage:c3.2xlarge
func (c Classifier) Classify(usageType, volumeType, description string) (string, error) {
	f := usageFields{
		rawUsageType: usageType,
		usageType:    stripRegionCode(usageType),
		volumeType:   volumeType,
		description:  description,
	}
	for _, rule := range usageRules {
		if rule.match(f) {
			return rule.classify(c, f)
		}
	}
	return "", nil
}

func (c Classifier) rdsStorage(f usageFields) (string, error) {
	for _, t := range rdsStorageTypes {
		if strings.Contains(f.description, t.phrase) {
			return "rds.storage." + t.volumeType, nil
		}
	}
	if c.RDSStorageFallback == DegradeUnknownRDSStorage {
		log.WithFields(log.Fields{
			"usage_type":  f.rawUsageType,
			"description": f.description,
		}).Warn("Unknown RDS storage type, counting it as rds.storage.unknown")
		return "rds.storage.unknown", nil
	}
	return "", &ClassificationError{UsageType: f.rawUsageType, Description: f.description}
}

// stripRegionCode drops a leading region code like "APN1-" or "USW2-".
func stripRegionCode(usageType string) string {
	i := strings.IndexByte(usageType, '-')
	if i != 4 {
		return usageType
	}
	code := usageType[:4]
	switch code[:2] {
	case "US", "EU", "AP", "SA":
	default:
		return usageType
	}
	if strings.ToUpper(code) != code || !isDigit(code[3]) {
		return usageType
	}
	return usageType[5:]
}

func hasPrefix(prefixes ...string) func(usageFields) bool {
	return func(f usageFields) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(f.usageType, p) {
				return true
			}
		}
		return false
	}
}

func equals(values ...string) func(usageFields) bool {
	return func(f usageFields) bool {
		for _, v := range values {
			if f.usageType == v {
				return true
			}
		}
		return false
	}
}

func constant(path string) func(Classifier, usageFields) (string, error) {
	return func(Classifier, usageFields) (string, error) {
		return path, nil
	}
}

// instanceType builds "<kind>.<instance type>" from the part of the usage
// type after the first colon, with dots turned into dashes.
func instanceType(kind string) func(Classifier, usageFields) (string, error) {
	return func(_ Classifier, f usageFields) (string, error) {
		i := strings.IndexByte(f.usageType, ':')
		name := f.usageType[i+1:]
		if name == "" {
			return "", nil
		}
		return kind + "." + strings.Replace(name, ".", "-", -1), nil
	}
}
