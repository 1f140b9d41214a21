/*
Package doctor is the engine behind the `roost doctor` command: it runs a
fixed battery of one-shot checks (CA presence, trust-store installation,
hosts-block integrity, leaf expiry) and reports each as a types.CheckResult.
*/
package doctor
