package logging

import (
	"log"
	"os"
)

var (
	RPC      = log.New(os.Stdout, "[rpc] ", log.LstdFlags)
	Offers   = log.New(os.Stdout, "[offers] ", log.LstdFlags)
	History  = log.New(os.Stdout, "[history] ", log.LstdFlags)
	Backup   = log.New(os.Stdout, "[backup] ", log.LstdFlags)
	Internal = log.New(os.Stdout, "[internal] ", log.LstdFlags)
)
