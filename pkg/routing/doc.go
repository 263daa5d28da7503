// Package routing decides whether and through which channels a notification
// is delivered, given the recipient's preferences and the current time.
//
// The engine is a pure function of its inputs: identical notification,
// preferences, and instant always produce an identical Decision, and no I/O
// happens during evaluation. Business conditions that prevent delivery
// (global toggle off, disabled category, expiration, future schedule, quiet
// hours, empty channel intersection) are encoded in the Decision's Reason
// rather than returned as errors; only structurally broken input is rejected,
// via the separate Validate entry point.
//
// Rules are evaluated in a fixed precedence order, first match wins:
//
//  1. Global toggle off.
//  2. Category explicitly disabled.
//  3. Notification expired.
//  4. Scheduled for the future (Decision carries DelayUntil).
//  5. Quiet hours: urgent notifications fall back to enabled in-app channels;
//     everything else is postponed until the window ends.
//  6. Channel intersection between the category allow-list and the
//     notification's own enabled channels.
//
// Quiet-hours containment compares minutes-since-midnight in the window's
// timezone; a window whose end precedes its start wraps midnight.
package routing
