package main

import "Tunebox/cmd"

func main() {
	// Execute 出错时会以非零状态退出
	cmd.Execute()
}
