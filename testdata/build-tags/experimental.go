//go:build experimental

package features

//bitvariants:gen pub Experiment; u8; Beta, Canary
