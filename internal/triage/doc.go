// Package triage implements the patient triage decision pipeline: the
// ordered clinical rule engine, the feature encoder, department
// assignment, and the Service that reconciles rule and model outcomes
// into one auditable result. Persistence (Store), narrative explanation
// (Explainer), and the statistical model (Classifier) are interfaces
// implemented elsewhere.
package triage
