// Package awsconn centralizes AWS session construction so the object store,
// training, and metrics clients share one region, endpoint, and credential
// chain.
package awsconn
