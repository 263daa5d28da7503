// Package notifier ties the pieces together: it persists notifications,
// consults recipient preferences, asks the routing engine for a delivery
// plan, and hands the plan to the dispatcher.
//
// The Manager is the package's entry point. Notifications are stored
// before any delivery is attempted, so a transport outage never loses a
// notification; the stored copy stays available for the in-app feed and
// for scheduled re-processing.
//
// Storage is abstracted behind NotificationStore and PreferencesStore.
// In-memory implementations back development and tests; production
// deployments supply database-backed ones.
package notifier
