// Package parser implements the Hybris language parser.
//
// The parser converts a stream of tokens (from pkg/lexer) into the
// *ast.Node tree pkg/engine walks directly; there is no separate
// statement/expression type hierarchy, no intermediate representation, and
// no bytecode compilation step between parsing and evaluation.
//
// Parser Architecture:
//
// The parser uses a recursive descent strategy with operator-precedence
// climbing for expressions:
//  1. Each grammar rule corresponds to a parsing method.
//  2. The parser looks one token ahead (via peekTok) to decide what to
//     parse without committing to a production prematurely.
//  3. Expression parsing climbs a fixed precedence table from assignment
//     (lowest) down to postfix access and primaries (highest).
//
// Token Management:
//
// The parser maintains two tokens at all times:
//   - curTok: the token currently being examined
//   - peekTok: the next token (one token lookahead)
//
// This window lets the parser distinguish, for example, an attribute read
// (`obj.name`) from a method call (`obj.name(...)`) by peeking past the
// identifier for a following '(' before deciding which node to build.
//
// Error Handling:
//
// Parse errors are accumulated in the errors slice rather than aborting at
// the first failure, so Parse can report every syntax error found in a
// single pass. A malformed statement is skipped up to the next statement
// boundary so one bad line does not cascade into spurious errors for the
// rest of the file.
//
// Operator Precedence (low to high):
//
//	assignment (=, +=, -=, *=, /=, %=, &=, |=, ^=)   right-associative
//	logical or (||)
//	logical and (&&)
//	equality (==, !=)
//	relational (<, <=, >, >=)
//	bitwise or (|)
//	bitwise xor (^)
//	bitwise and (&)
//	shift (<<, >>)
//	additive (+, -)
//	multiplicative (*, /, %)
//	unary (-, !, ~, &ident)
//	postfix (call, subscript, attribute/method access)
//	primary (literals, identifiers, self, new, @, (expr), [vec], {map}, matrix[...])
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kristofer/hybris/pkg/ast"
	"github.com/kristofer/hybris/pkg/lexer"
)

// Parser turns tokens from a Lexer into an *ast.Node tree.
type Parser struct {
	l       *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token
	errors  []string
}

// New creates a Parser over input, priming the two-token lookahead window.
func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) curIs(tt lexer.TokenType) bool  { return p.curTok.Type == tt }
func (p *Parser) peekIs(tt lexer.TokenType) bool { return p.peekTok.Type == tt }

// expect consumes curTok if it matches tt, advancing the window; otherwise
// it records a syntax error and leaves the token stream where it was so the
// caller can attempt to recover.
func (p *Parser) expect(tt lexer.TokenType, what string) bool {
	if p.curIs(tt) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, got %q at line %d", what, p.curTok.Literal, p.curTok.Line)
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

// syncToStatement discards tokens until a likely statement boundary, used
// to recover after a parse error so one bad statement does not poison the
// rest of the file.
func (p *Parser) syncToStatement() {
	for !p.curIs(lexer.TokenEOF) {
		if p.curIs(lexer.TokenSemi) {
			p.nextToken()
			return
		}
		if p.curIs(lexer.TokenRBrace) {
			return
		}
		p.nextToken()
	}
}

// Parse consumes the entire token stream and returns the root Program node.
// If any syntax errors were recorded along the way, it returns the partial
// tree built so far alongside a combined error describing every failure.
func (p *Parser) Parse() (*ast.Node, error) {
	var statements []*ast.Node
	for !p.curIs(lexer.TokenEOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			statements = append(statements, stmt)
		}
	}
	if len(p.errors) > 0 {
		return ast.Program(statements), fmt.Errorf("parse errors:\n%s", strings.Join(p.errors, "\n"))
	}
	return ast.Program(statements), nil
}

// parseStatement dispatches on the current token to the right statement
// production. A statement that fails to parse is resynchronized to the
// next statement boundary and reported as a single error rather than
// aborting the whole parse.
func (p *Parser) parseStatement() *ast.Node {
	line := p.curTok.Line
	switch p.curTok.Type {
	case lexer.TokenSemi:
		p.nextToken()
		return nil
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenImport:
		return p.parseImport()
	case lexer.TokenFunction:
		return p.parseFunctionDecl()
	case lexer.TokenClass:
		return p.parseClassDecl()
	case lexer.TokenStruct:
		return p.parseStructureDecl()
	case lexer.TokenIf, lexer.TokenUnless:
		return p.parseIfUnless()
	case lexer.TokenWhile:
		return p.parseWhile()
	case lexer.TokenDo:
		return p.parseDoWhile()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenForeach:
		return p.parseForeach()
	case lexer.TokenSwitch:
		return p.parseSwitch()
	case lexer.TokenBreak:
		p.nextToken()
		p.consumeOptionalSemi()
		return &ast.Node{Kind: ast.KindBreak, Line: line}
	case lexer.TokenContinue:
		p.nextToken()
		p.consumeOptionalSemi()
		return &ast.Node{Kind: ast.KindNext, Line: line}
	case lexer.TokenReturn:
		return p.parseReturn()
	case lexer.TokenThrow:
		return p.parseThrow()
	case lexer.TokenTry:
		return p.parseTryCatchFinally()
	case lexer.TokenVar:
		return p.parseExplodeAssign()
	default:
		before := len(p.errors)
		expr := p.parseExpression(precAssignment)
		if expr == nil || len(p.errors) > before {
			p.syncToStatement()
			return expr
		}
		p.consumeOptionalSemi()
		return expr
	}
}

func (p *Parser) consumeOptionalSemi() {
	if p.curIs(lexer.TokenSemi) {
		p.nextToken()
	}
}

// parseBlock parses a brace-delimited sequence of statements into a
// KindBlock node.
func (p *Parser) parseBlock() *ast.Node {
	line := p.curTok.Line
	if !p.expect(lexer.TokenLBrace, "'{'") {
		p.syncToStatement()
		return &ast.Node{Kind: ast.KindBlock, Line: line}
	}
	var stmts []*ast.Node
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return &ast.Node{Kind: ast.KindBlock, Line: line, Children: stmts}
}

// parseImport parses `import a.b.c;` into a KindImport node whose
// Identifier carries the dotted path.
func (p *Parser) parseImport() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	var parts []string
	for {
		if !p.curIs(lexer.TokenIdentifier) {
			p.errorf("expected identifier in import path at line %d", p.curTok.Line)
			break
		}
		parts = append(parts, p.curTok.Literal)
		p.nextToken()
		if p.curIs(lexer.TokenDot) {
			p.nextToken()
			continue
		}
		break
	}
	p.consumeOptionalSemi()
	return &ast.Node{Kind: ast.KindImport, Line: line, Identifier: strings.Join(parts, ".")}
}

// parseParamList parses a declaration's formal parameter names. Hybris
// functions never declare the trailing vargs collector as a named
// parameter: any caller argument past the ones listed here is reached from
// the body through the bare '@' expression instead, so every parsed Param
// here is non-variadic.
func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	p.expect(lexer.TokenLParen, "'('")
	for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
		if p.curIs(lexer.TokenIdentifier) {
			params = append(params, ast.Param{Name: p.curTok.Literal})
			p.nextToken()
		} else {
			p.errorf("expected parameter name at line %d", p.curTok.Line)
			p.nextToken()
		}
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen, "')'")
	return params
}

// parseFunctionDecl parses `function name(params) { body }`.
func (p *Parser) parseFunctionDecl() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	name := p.curTok.Literal
	p.expect(lexer.TokenIdentifier, "function name")
	params := p.parseParamList()
	body := p.parseBlock()
	return &ast.Node{Kind: ast.KindFunctionDecl, Line: line, Identifier: name, Params: params, Children: []*ast.Node{body}}
}

// parseStructureDecl parses a plain-data `structure Name { fields }`.
func (p *Parser) parseStructureDecl() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	name := p.curTok.Literal
	p.expect(lexer.TokenIdentifier, "structure name")
	p.expect(lexer.TokenLBrace, "'{'")
	var fields []ast.Field
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		fields = append(fields, p.parseField())
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return &ast.Node{Kind: ast.KindStructureDecl, Line: line, Identifier: name, Fields: fields}
}

// parseClassDecl parses `class Name (extends Super)? { members }`, where
// members are field declarations and method declarations, each optionally
// prefixed by an access modifier and `static`.
func (p *Parser) parseClassDecl() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	name := p.curTok.Literal
	p.expect(lexer.TokenIdentifier, "class name")
	var super string
	if p.curIs(lexer.TokenExtends) {
		p.nextToken()
		super = p.curTok.Literal
		p.expect(lexer.TokenIdentifier, "superclass name")
	}
	p.expect(lexer.TokenLBrace, "'{'")
	var fields []ast.Field
	var methods []ast.MethodDecl
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		access := ast.AccessPublic
		switch p.curTok.Type {
		case lexer.TokenPublic:
			access = ast.AccessPublic
			p.nextToken()
		case lexer.TokenProtected:
			access = ast.AccessProtected
			p.nextToken()
		case lexer.TokenPrivate:
			access = ast.AccessPrivate
			p.nextToken()
		}
		static := false
		if p.curIs(lexer.TokenStatic) {
			static = true
			p.nextToken()
		}
		if p.curIs(lexer.TokenFunction) {
			methods = append(methods, p.parseMethodDecl(access, static))
			continue
		}
		fields = append(fields, p.parseFieldBody(access, static))
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return &ast.Node{Kind: ast.KindClassDecl, Line: line, Identifier: name, SuperClass: super, Fields: fields, Methods: methods}
}

func (p *Parser) parseField() ast.Field {
	access := ast.AccessPublic
	switch p.curTok.Type {
	case lexer.TokenPublic:
		p.nextToken()
	case lexer.TokenProtected:
		access = ast.AccessProtected
		p.nextToken()
	case lexer.TokenPrivate:
		access = ast.AccessPrivate
		p.nextToken()
	}
	static := false
	if p.curIs(lexer.TokenStatic) {
		static = true
		p.nextToken()
	}
	return p.parseFieldBody(access, static)
}

func (p *Parser) parseFieldBody(access ast.Access, static bool) ast.Field {
	name := p.curTok.Literal
	p.expect(lexer.TokenIdentifier, "field name")
	var def *ast.Node
	if p.curIs(lexer.TokenAssign) {
		p.nextToken()
		def = p.parseExpression(precAssignment)
	}
	p.consumeOptionalSemi()
	return ast.Field{Name: name, Access: access, Static: static, Default: def}
}

// parseMethodDecl parses `function name(params) { body }` inside a class
// body; a method named "constructor" is marked Ctor so the engine treats it
// as the object initializer run by `new`.
func (p *Parser) parseMethodDecl(access ast.Access, static bool) ast.MethodDecl {
	line := p.curTok.Line
	p.nextToken()
	name := p.curTok.Literal
	p.expect(lexer.TokenIdentifier, "method name")
	params := p.parseParamList()
	body := p.parseBlock()
	return ast.MethodDecl{
		Name:   name,
		Access: access,
		Static: static,
		Ctor:   name == "constructor",
		Params: params,
		Body:   body,
		Line:   line,
	}
}

// parseIfUnless parses `if (cond) block (else block)?` and its negated
// form `unless (cond) block (else block)?`.
func (p *Parser) parseIfUnless() *ast.Node {
	line := p.curTok.Line
	kind := ast.KindIf
	if p.curIs(lexer.TokenUnless) {
		kind = ast.KindUnless
	}
	p.nextToken()
	p.expect(lexer.TokenLParen, "'('")
	cond := p.parseExpression(precAssignment)
	p.expect(lexer.TokenRParen, "')'")
	then := p.parseStatementOrBlock()
	children := []*ast.Node{cond, then}
	if p.curIs(lexer.TokenElse) {
		p.nextToken()
		children = append(children, p.parseStatementOrBlock())
	}
	return &ast.Node{Kind: kind, Line: line, Children: children}
}

// parseStatementOrBlock parses a brace block if present, otherwise a single
// statement, so `if (x) y = 1;` works without braces like `if (x) { y = 1; }`.
func (p *Parser) parseStatementOrBlock() *ast.Node {
	if p.curIs(lexer.TokenLBrace) {
		return p.parseBlock()
	}
	stmt := p.parseStatement()
	if stmt == nil {
		return &ast.Node{Kind: ast.KindBlock}
	}
	return &ast.Node{Kind: ast.KindBlock, Children: []*ast.Node{stmt}}
}

func (p *Parser) parseWhile() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	p.expect(lexer.TokenLParen, "'('")
	cond := p.parseExpression(precAssignment)
	p.expect(lexer.TokenRParen, "')'")
	body := p.parseStatementOrBlock()
	return &ast.Node{Kind: ast.KindWhile, Line: line, Children: []*ast.Node{cond, body}}
}

func (p *Parser) parseDoWhile() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	body := p.parseStatementOrBlock()
	p.expect(lexer.TokenWhile, "'while'")
	p.expect(lexer.TokenLParen, "'('")
	cond := p.parseExpression(precAssignment)
	p.expect(lexer.TokenRParen, "')'")
	p.consumeOptionalSemi()
	return &ast.Node{Kind: ast.KindDoWhile, Line: line, Children: []*ast.Node{body, cond}}
}

// parseFor parses a classic three-clause `for (init; cond; post) body`. Any
// clause may be empty; an empty init/post becomes an empty block and an
// empty condition becomes a `true` constant so the engine's fixed
// four-children contract is always satisfied.
func (p *Parser) parseFor() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	p.expect(lexer.TokenLParen, "'('")

	var initNode *ast.Node
	if p.curIs(lexer.TokenSemi) {
		initNode = &ast.Node{Kind: ast.KindBlock}
	} else {
		initNode = p.parseExpression(precAssignment)
	}
	p.expect(lexer.TokenSemi, "';'")

	var condNode *ast.Node
	if p.curIs(lexer.TokenSemi) {
		condNode = &ast.Node{Kind: ast.KindConstant, Constant: true}
	} else {
		condNode = p.parseExpression(precAssignment)
	}
	p.expect(lexer.TokenSemi, "';'")

	var postNode *ast.Node
	if p.curIs(lexer.TokenRParen) {
		postNode = &ast.Node{Kind: ast.KindBlock}
	} else {
		postNode = p.parseExpression(precAssignment)
	}
	p.expect(lexer.TokenRParen, "')'")

	body := p.parseStatementOrBlock()
	return &ast.Node{Kind: ast.KindFor, Line: line, Children: []*ast.Node{initNode, condNode, postNode, body}}
}

// parseForeach parses `foreach (x in iterable) body` and the mapping form
// `foreach (k, v in map) body`.
func (p *Parser) parseForeach() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	p.expect(lexer.TokenLParen, "'('")
	first := p.curTok.Literal
	p.expect(lexer.TokenIdentifier, "loop variable")

	if p.curIs(lexer.TokenComma) {
		p.nextToken()
		second := p.curTok.Literal
		p.expect(lexer.TokenIdentifier, "loop value variable")
		p.expect(lexer.TokenIn, "'in'")
		iterable := p.parseExpression(precAssignment)
		p.expect(lexer.TokenRParen, "')'")
		body := p.parseStatementOrBlock()
		return &ast.Node{Kind: ast.KindForeachMapping, Line: line, ExplodeVars: []string{first, second}, Children: []*ast.Node{iterable, body}}
	}

	p.expect(lexer.TokenIn, "'in'")
	iterable := p.parseExpression(precAssignment)
	p.expect(lexer.TokenRParen, "')'")
	body := p.parseStatementOrBlock()
	return &ast.Node{Kind: ast.KindForeach, Line: line, Identifier: first, Children: []*ast.Node{iterable, body}}
}

// parseSwitch parses `switch (expr) { case e: stmts... default: stmts... }`.
// Each arm's body runs until the next case/default/closing brace.
func (p *Parser) parseSwitch() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	p.expect(lexer.TokenLParen, "'('")
	target := p.parseExpression(precAssignment)
	p.expect(lexer.TokenRParen, "')'")
	p.expect(lexer.TokenLBrace, "'{'")

	var cases []ast.SwitchCase
	for p.curIs(lexer.TokenCase) || p.curIs(lexer.TokenDefault) {
		isDefault := p.curIs(lexer.TokenDefault)
		caseLine := p.curTok.Line
		p.nextToken()
		var caseTarget *ast.Node
		if !isDefault {
			caseTarget = p.parseExpression(precAssignment)
		}
		p.expect(lexer.TokenColon, "':'")
		var stmts []*ast.Node
		for !p.curIs(lexer.TokenCase) && !p.curIs(lexer.TokenDefault) && !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
			if stmt := p.parseStatement(); stmt != nil {
				stmts = append(stmts, stmt)
			}
		}
		cases = append(cases, ast.SwitchCase{Target: caseTarget, Body: &ast.Node{Kind: ast.KindBlock, Line: caseLine, Children: stmts}})
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return &ast.Node{Kind: ast.KindSwitch, Line: line, Children: []*ast.Node{target}, Cases: cases}
}

func (p *Parser) parseReturn() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	var children []*ast.Node
	if !p.curIs(lexer.TokenSemi) && !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		children = append(children, p.parseExpression(precAssignment))
	}
	p.consumeOptionalSemi()
	return &ast.Node{Kind: ast.KindReturn, Line: line, Children: children}
}

func (p *Parser) parseThrow() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	expr := p.parseExpression(precAssignment)
	p.consumeOptionalSemi()
	return &ast.Node{Kind: ast.KindThrow, Line: line, Children: []*ast.Node{expr}}
}

// parseTryCatchFinally parses `try block (catch (name) block)? (finally block)?`.
func (p *Parser) parseTryCatchFinally() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	tryBody := p.parseBlock()

	var catchBody *ast.Node
	var catchName string
	if p.curIs(lexer.TokenCatch) {
		p.nextToken()
		if p.curIs(lexer.TokenLParen) {
			p.nextToken()
			catchName = p.curTok.Literal
			p.expect(lexer.TokenIdentifier, "catch variable name")
			p.expect(lexer.TokenRParen, "')'")
		}
		catchBody = p.parseBlock()
	}

	var finallyBody *ast.Node
	if p.curIs(lexer.TokenFinally) {
		p.nextToken()
		finallyBody = p.parseBlock()
	}

	return &ast.Node{
		Kind:      ast.KindTryCatchFinally,
		Line:      line,
		Children:  []*ast.Node{tryBody},
		Catch:     catchBody,
		CatchName: catchName,
		Finally:   finallyBody,
	}
}

// parseExplodeAssign parses destructuring assignment `var (a, b, c) = expr;`.
// The dedicated `var` prefix keeps this production unambiguous for a
// two-token-lookahead parser; without it, a leading '(' is indistinguishable
// from a parenthesized expression until the matching ')' is reached.
func (p *Parser) parseExplodeAssign() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	p.expect(lexer.TokenLParen, "'('")
	var names []string
	for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
		names = append(names, p.curTok.Literal)
		p.expect(lexer.TokenIdentifier, "variable name")
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen, "')'")
	p.expect(lexer.TokenAssign, "'='")
	rhs := p.parseExpression(precAssignment)
	p.consumeOptionalSemi()
	return &ast.Node{Kind: ast.KindExplodeAssign, Line: line, ExplodeVars: names, Children: []*ast.Node{rhs}}
}

// Precedence levels for parseExpression's climbing loop, lowest first.
const (
	precAssignment = iota
	precOr
	precAnd
	precEquality
	precRelational
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdditive
	precMultiplicative
)

var compoundAssignOps = map[lexer.TokenType]string{
	lexer.TokenPlusEq:    "+",
	lexer.TokenMinusEq:   "-",
	lexer.TokenStarEq:    "*",
	lexer.TokenSlashEq:   "/",
	lexer.TokenPercentEq: "%",
	lexer.TokenAmpEq:     "&",
	lexer.TokenPipeEq:    "|",
	lexer.TokenCaretEq:   "^",
}

var binaryOps = map[lexer.TokenType]string{
	lexer.TokenEq:    "==",
	lexer.TokenNe:    "!=",
	lexer.TokenLt:    "<",
	lexer.TokenLe:    "<=",
	lexer.TokenGt:    ">",
	lexer.TokenGe:    ">=",
	lexer.TokenPipe:  "|",
	lexer.TokenCaret: "^",
	lexer.TokenAmp:   "&",
	lexer.TokenShl:   "<<",
	lexer.TokenShr:   ">>",
	lexer.TokenPlus:  "+",
	lexer.TokenMinus: "-",
	lexer.TokenStar:  "*",
	lexer.TokenSlash:   "/",
	lexer.TokenPercent: "%",
}

// parseExpression climbs the precedence table starting at min, left
// binding tighter productions first and folding them into the running left
// operand before testing the next operator at this level.
func (p *Parser) parseExpression(min int) *ast.Node {
	if min == precAssignment {
		return p.parseAssignment()
	}
	left := p.parseBinaryLevel(min)
	return left
}

// parseAssignment handles the lowest precedence level: plain assignment,
// compound assignment, and everything below falls through to the
// logical-or level. Assignment is right-associative and only legal when
// the left-hand side is an identifier, subscript, or attribute access.
func (p *Parser) parseAssignment() *ast.Node {
	left := p.parseBinaryLevel(precOr)
	line := p.curTok.Line

	if p.curIs(lexer.TokenAssign) {
		p.nextToken()
		rhs := p.parseAssignment()
		return p.buildAssign(left, rhs, line)
	}
	if op, ok := compoundAssignOps[p.curTok.Type]; ok {
		p.nextToken()
		rhs := p.parseAssignment()
		return p.buildCompoundAssign(left, op, rhs, line)
	}
	return left
}

func (p *Parser) buildAssign(target, rhs *ast.Node, line int) *ast.Node {
	switch target.Kind {
	case ast.KindSubscriptGet:
		return &ast.Node{Kind: ast.KindSubscriptSet, Line: line, Children: []*ast.Node{target.Children[0], target.Children[1], rhs}}
	case ast.KindAttributeGet:
		return &ast.Node{Kind: ast.KindAttributeSet, Line: line, Identifier: target.Identifier, Children: []*ast.Node{target.Children[0], rhs}}
	case ast.KindIdentifier:
		return &ast.Node{Kind: ast.KindAssign, Line: line, Children: []*ast.Node{target, rhs}}
	default:
		p.errorf("invalid assignment target at line %d", line)
		return target
	}
}

func (p *Parser) buildCompoundAssign(target *ast.Node, op string, rhs *ast.Node, line int) *ast.Node {
	switch target.Kind {
	case ast.KindSubscriptGet, ast.KindAttributeGet, ast.KindIdentifier:
		return &ast.Node{Kind: ast.KindCompoundAssign, Line: line, Op: op, Children: []*ast.Node{target, rhs}}
	default:
		p.errorf("invalid assignment target at line %d", line)
		return target
	}
}

// parseBinaryLevel parses one precedence level of the climbing table,
// recursing into the next tighter level for operands and folding same-level
// operators left-associatively, except at precOr/precAnd where the matching
// tokens build short-circuit KindOr/KindAnd nodes instead of KindBinary.
func (p *Parser) parseBinaryLevel(level int) *ast.Node {
	if level > precMultiplicative {
		return p.parseUnary()
	}
	left := p.parseBinaryLevel(level + 1)
	for {
		line := p.curTok.Line
		switch level {
		case precOr:
			if p.curIs(lexer.TokenPipe2) {
				p.nextToken()
				right := p.parseBinaryLevel(level + 1)
				left = &ast.Node{Kind: ast.KindOr, Line: line, Children: []*ast.Node{left, right}}
				continue
			}
		case precAnd:
			if p.curIs(lexer.TokenAmp2) {
				p.nextToken()
				right := p.parseBinaryLevel(level + 1)
				left = &ast.Node{Kind: ast.KindAnd, Line: line, Children: []*ast.Node{left, right}}
				continue
			}
		case precEquality:
			if p.curIs(lexer.TokenEq) || p.curIs(lexer.TokenNe) {
				op := binaryOps[p.curTok.Type]
				p.nextToken()
				right := p.parseBinaryLevel(level + 1)
				left = &ast.Node{Kind: ast.KindBinary, Line: line, Op: op, Children: []*ast.Node{left, right}}
				continue
			}
		case precRelational:
			if p.curIs(lexer.TokenLt) || p.curIs(lexer.TokenLe) || p.curIs(lexer.TokenGt) || p.curIs(lexer.TokenGe) {
				op := binaryOps[p.curTok.Type]
				p.nextToken()
				right := p.parseBinaryLevel(level + 1)
				left = &ast.Node{Kind: ast.KindBinary, Line: line, Op: op, Children: []*ast.Node{left, right}}
				continue
			}
		case precBitOr:
			if p.curIs(lexer.TokenPipe) {
				p.nextToken()
				right := p.parseBinaryLevel(level + 1)
				left = &ast.Node{Kind: ast.KindBinary, Line: line, Op: "|", Children: []*ast.Node{left, right}}
				continue
			}
		case precBitXor:
			if p.curIs(lexer.TokenCaret) {
				p.nextToken()
				right := p.parseBinaryLevel(level + 1)
				left = &ast.Node{Kind: ast.KindBinary, Line: line, Op: "^", Children: []*ast.Node{left, right}}
				continue
			}
		case precBitAnd:
			if p.curIs(lexer.TokenAmp) {
				p.nextToken()
				right := p.parseBinaryLevel(level + 1)
				left = &ast.Node{Kind: ast.KindBinary, Line: line, Op: "&", Children: []*ast.Node{left, right}}
				continue
			}
		case precShift:
			if p.curIs(lexer.TokenShl) || p.curIs(lexer.TokenShr) {
				op := binaryOps[p.curTok.Type]
				p.nextToken()
				right := p.parseBinaryLevel(level + 1)
				left = &ast.Node{Kind: ast.KindBinary, Line: line, Op: op, Children: []*ast.Node{left, right}}
				continue
			}
		case precAdditive:
			if p.curIs(lexer.TokenPlus) || p.curIs(lexer.TokenMinus) {
				op := binaryOps[p.curTok.Type]
				p.nextToken()
				right := p.parseBinaryLevel(level + 1)
				left = &ast.Node{Kind: ast.KindBinary, Line: line, Op: op, Children: []*ast.Node{left, right}}
				continue
			}
		case precMultiplicative:
			if p.curIs(lexer.TokenStar) || p.curIs(lexer.TokenSlash) || p.curIs(lexer.TokenPercent) {
				op := binaryOps[p.curTok.Type]
				p.nextToken()
				right := p.parseUnary()
				left = &ast.Node{Kind: ast.KindBinary, Line: line, Op: op, Children: []*ast.Node{left, right}}
				continue
			}
		}
		return left
	}
}

// parseUnary handles prefix operators (-, !, ~), the &identifier function
// alias, and falls through to postfix/primary parsing otherwise.
func (p *Parser) parseUnary() *ast.Node {
	line := p.curTok.Line
	switch p.curTok.Type {
	case lexer.TokenMinus, lexer.TokenBang, lexer.TokenTilde:
		op := p.curTok.Literal
		p.nextToken()
		operand := p.parseUnary()
		return &ast.Node{Kind: ast.KindUnary, Line: line, Op: op, Children: []*ast.Node{operand}}
	case lexer.TokenAmp:
		p.nextToken()
		name := p.curTok.Literal
		p.expect(lexer.TokenIdentifier, "function name")
		return &ast.Node{Kind: ast.KindAlias, Line: line, Identifier: name}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by any chain of
// subscript, attribute, method-call, or invocation suffixes.
func (p *Parser) parsePostfix() *ast.Node {
	expr := p.parsePrimary()
	for {
		line := p.curTok.Line
		switch p.curTok.Type {
		case lexer.TokenLBracket:
			p.nextToken()
			idx := p.parseExpression(precAssignment)
			p.expect(lexer.TokenRBracket, "']'")
			expr = &ast.Node{Kind: ast.KindSubscriptGet, Line: line, Children: []*ast.Node{expr, idx}}
		case lexer.TokenDot:
			p.nextToken()
			name := p.curTok.Literal
			p.expect(lexer.TokenIdentifier, "member name")
			if p.curIs(lexer.TokenLParen) {
				args := p.parseArgList()
				expr = &ast.Node{Kind: ast.KindMethodCall, Line: line, Identifier: name, Children: append([]*ast.Node{expr}, args...)}
			} else {
				expr = &ast.Node{Kind: ast.KindAttributeGet, Line: line, Identifier: name, Children: []*ast.Node{expr}}
			}
		case lexer.TokenLParen:
			if expr.Kind == ast.KindIdentifier {
				args := p.parseArgList()
				expr = &ast.Node{Kind: ast.KindCall, Line: line, Identifier: expr.Identifier, Children: args}
				continue
			}
			return expr
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgList() []*ast.Node {
	p.expect(lexer.TokenLParen, "'('")
	var args []*ast.Node
	for !p.curIs(lexer.TokenRParen) && !p.curIs(lexer.TokenEOF) {
		args = append(args, p.parseExpression(precAssignment))
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen, "')'")
	return args
}

// parsePrimary parses the atoms of the grammar: literals, identifiers,
// self, parenthesized expressions, vector/map/matrix literals, new
// expressions, and the bare '@' vargs marker.
func (p *Parser) parsePrimary() *ast.Node {
	line := p.curTok.Line
	switch p.curTok.Type {
	case lexer.TokenInteger:
		lit := p.curTok.Literal
		p.nextToken()
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			p.errorf("invalid integer literal %q at line %d", lit, line)
		}
		return &ast.Node{Kind: ast.KindConstant, Line: line, Constant: n}
	case lexer.TokenFloat:
		lit := p.curTok.Literal
		p.nextToken()
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			p.errorf("invalid float literal %q at line %d", lit, line)
		}
		return &ast.Node{Kind: ast.KindConstant, Line: line, Constant: f}
	case lexer.TokenString:
		lit := p.curTok.Literal
		p.nextToken()
		return &ast.Node{Kind: ast.KindConstant, Line: line, Constant: lit}
	case lexer.TokenChar:
		lit := p.curTok.Literal
		p.nextToken()
		var b byte
		if len(lit) > 0 {
			b = lit[0]
		}
		return &ast.Node{Kind: ast.KindConstant, Line: line, Constant: b}
	case lexer.TokenTrue:
		p.nextToken()
		return &ast.Node{Kind: ast.KindConstant, Line: line, Constant: true}
	case lexer.TokenFalse:
		p.nextToken()
		return &ast.Node{Kind: ast.KindConstant, Line: line, Constant: false}
	case lexer.TokenNull:
		p.nextToken()
		return &ast.Node{Kind: ast.KindConstant, Line: line, Constant: nil}
	case lexer.TokenSelf:
		p.nextToken()
		return &ast.Node{Kind: ast.KindSelf, Line: line}
	case lexer.TokenAt:
		p.nextToken()
		return &ast.Node{Kind: ast.KindVargs, Line: line}
	case lexer.TokenIdentifier:
		name := p.curTok.Literal
		p.nextToken()
		return &ast.Node{Kind: ast.KindIdentifier, Line: line, Identifier: name}
	case lexer.TokenLParen:
		p.nextToken()
		expr := p.parseExpression(precAssignment)
		p.expect(lexer.TokenRParen, "')'")
		return expr
	case lexer.TokenLBracket:
		return p.parseVectorLiteral()
	case lexer.TokenLBrace:
		return p.parseMapLiteral()
	case lexer.TokenMatrix:
		return p.parseMatrixLiteral()
	case lexer.TokenNew:
		return p.parseNew()
	default:
		p.errorf("unexpected token %q at line %d", p.curTok.Literal, line)
		p.nextToken()
		return &ast.Node{Kind: ast.KindConstant, Line: line, Constant: nil}
	}
}

// parseVectorLiteral parses `[e1, e2, ...]` into a KindVector node.
func (p *Parser) parseVectorLiteral() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	var items []*ast.Node
	for !p.curIs(lexer.TokenRBracket) && !p.curIs(lexer.TokenEOF) {
		items = append(items, p.parseExpression(precAssignment))
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRBracket, "']'")
	return &ast.Node{Kind: ast.KindVector, Line: line, Children: items}
}

// parseMapLiteral parses `{k1: v1, k2: v2, ...}` into a KindMapLiteral node
// whose Children alternate key, value, key, value in source order.
func (p *Parser) parseMapLiteral() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	var items []*ast.Node
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		key := p.parseExpression(precAssignment)
		p.expect(lexer.TokenColon, "':'")
		val := p.parseExpression(precAssignment)
		items = append(items, key, val)
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return &ast.Node{Kind: ast.KindMapLiteral, Line: line, Children: items}
}

// parseMatrixLiteral parses `matrix [ [r1c1, r1c2], [r2c1, r2c2] ]` into a
// KindMatrixLiteral node whose Children are row nodes (each a KindVector of
// that row's cell expressions), disambiguating a matrix from a plain
// vector-of-vectors by the leading `matrix` keyword.
func (p *Parser) parseMatrixLiteral() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	p.expect(lexer.TokenLBracket, "'['")
	var rows []*ast.Node
	for !p.curIs(lexer.TokenRBracket) && !p.curIs(lexer.TokenEOF) {
		rows = append(rows, p.parseVectorLiteral())
		if p.curIs(lexer.TokenComma) {
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRBracket, "']'")
	return &ast.Node{Kind: ast.KindMatrixLiteral, Line: line, Children: rows}
}

// parseNew parses `new Type(args)` into a KindNew node.
func (p *Parser) parseNew() *ast.Node {
	line := p.curTok.Line
	p.nextToken()
	name := p.curTok.Literal
	p.expect(lexer.TokenIdentifier, "type name")
	var args []*ast.Node
	if p.curIs(lexer.TokenLParen) {
		args = p.parseArgList()
	}
	return &ast.Node{Kind: ast.KindNew, Line: line, Identifier: name, Children: args}
}
