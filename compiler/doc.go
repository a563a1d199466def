/*

Process of optimization

Assembly Text ->
	parse ->
Assembly Language (asm) ->
	condopt ->
Assembly Language (asm) ->
	format ->
Assembly Text

*/
package compiler
