package main

import "errors"

var errPostgresUnavailable = errors.New("faq source is postgres but no database is reachable")
