// Package domain defines the onboarding data model shared by the validation
// engine, the wizard, the store state container, and the marketplace client:
// stores and their related collections, the wizard FormState, and the
// ordered wizard steps.
package domain
