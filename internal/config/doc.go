// Package config loads the server configuration from ~/.garakrc and the environment.
//
// The rc file may be JSON:
//
//	{"ALIGO_API_KEY": "...", "ALIGO_USER_ID": "myaccount", "ALIGO_TEST_MODE": "Y"}
//
// or KEY=value lines:
//
//	ALIGO_API_KEY=...
//	ALIGO_USER_ID=myaccount
//
// Every key can be overridden by an environment variable of the same name, or the
// same name prefixed with GARAK_.
package config
