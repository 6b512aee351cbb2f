// Package testsupport provides shared fixtures for package tests: temp-dir
// configs, evidence files, and pipeline services wired against them.
package testsupport
