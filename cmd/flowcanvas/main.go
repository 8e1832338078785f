package main

import (
	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/flowcanvas/fccli"
)

func main() {
	xmain.Main(fccli.Run)
}
