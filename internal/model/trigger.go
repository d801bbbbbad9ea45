package model

import "strings"

// Category is one of the closed set of wellness categories a trigger or
// card can belong to.
type Category string

const (
	CategorySleepDebt              Category = "Sleep debt"
	CategoryScreenTime             Category = "Screen time"
	CategorySedentaryLifestyle     Category = "Sedentary lifestyle"
	CategoryExercise               Category = "Exercise"
	CategoryCaffeine               Category = "Caffeine"
	CategoryMigraine               Category = "Migraine"
	CategoryHeartRate              Category = "Heart rate"
	CategoryStress                 Category = "Stress"
	CategoryAirQuality             Category = "Air quality"
	CategoryEnvironmentalAllergies Category = "Environmental allergies"
	CategoryWaterQuality           Category = "Water quality"
	CategoryHydration              Category = "Hydration"
	CategoryCircadianDisruption    Category = "Circadian disruption"
	CategoryMood                   Category = "Mood"
	CategoryAnxiety                Category = "Anxiety"
	CategoryDepression             Category = "Depression"
	CategoryWeightManagement       Category = "Weight management"
	CategoryPrediabetes            Category = "Prediabetes"
	CategoryDiabetesType2          Category = "Diabetes (type 2)"
	CategoryHypertension           Category = "Hypertension"
	CategoryAlcoholUse             Category = "Alcohol use"
	CategorySmoking                Category = "Smoking"
	CategorySleepApnea             Category = "Sleep apnea"
	CategorySocialIsolation        Category = "Social isolation"
	CategoryGERD                   Category = "GERD (acid reflux)"
)

// Categories lists every valid category.
var Categories = []Category{
	CategorySleepDebt, CategoryScreenTime, CategorySedentaryLifestyle, CategoryExercise,
	CategoryCaffeine, CategoryMigraine, CategoryHeartRate, CategoryStress,
	CategoryAirQuality, CategoryEnvironmentalAllergies, CategoryWaterQuality, CategoryHydration,
	CategoryCircadianDisruption, CategoryMood, CategoryAnxiety, CategoryDepression,
	CategoryWeightManagement, CategoryPrediabetes, CategoryDiabetesType2, CategoryHypertension,
	CategoryAlcoholUse, CategorySmoking, CategorySleepApnea, CategorySocialIsolation,
	CategoryGERD,
}

var categorySet = func() map[Category]bool {
	m := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool { return categorySet[c] }

// TriggerType says how a trigger should be surfaced.
type TriggerType string

const (
	TypeInsight TriggerType = "insight"
	TypeAction  TriggerType = "action"
	TypeAlert   TriggerType = "alert"
)

// Valid reports whether t is insight, action or alert.
func (t TriggerType) Valid() bool {
	return t == TypeInsight || t == TypeAction || t == TypeAlert
}

// Severity runs from 1 (mild) to 3 (severe).
type Severity int

const (
	SeverityMild     Severity = 1
	SeverityModerate Severity = 2
	SeveritySevere   Severity = 3
)

// Trigger is the result of one fired rule.
type Trigger struct {
	Category       Category    `json:"category"`
	Type           TriggerType `json:"type"`
	Severity       Severity    `json:"severity"`
	Confidence     float64     `json:"confidence"`
	Reasons        []string    `json:"reasons"`
	MetricCallouts []string    `json:"metric_callouts"`
}

// CalloutsKey joins the callouts the way trigger signatures expect.
func (t Trigger) CalloutsKey() string {
	return strings.Join(t.MetricCallouts, ",")
}

// EngineOutput is what one risk engine run produces.
type EngineOutput struct {
	Drivers  Drivers   `json:"drivers"`
	Triggers []Trigger `json:"triggers"`
}
