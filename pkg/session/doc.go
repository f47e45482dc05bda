/*
Package session keeps one editing session per bot.

A Manager opens editors lazily from a snapshot store, so the saved snapshot
becomes the history baseline of the session, and serializes opening, saving
and deleting per bot name.
*/
package session
