// Package inapp delivers notifications to live in-app subscribers.
//
// The Hub fans each notification out to every open subscription of the
// recipient user. Sends never block: a subscriber whose buffer is full
// has the message dropped and is detached, so one stalled UI connection
// cannot slow delivery for anyone else. Persistence of the in-app feed
// is the notifier's job; the hub only handles the live push.
package inapp
